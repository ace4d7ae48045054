package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// httpReporter POSTs each event to the collector's live-log endpoint. No
// response body is expected; anything other than a 2xx is treated as a
// delivery failure and swallowed.
type httpReporter struct {
	endpoint string
	client   *http.Client
	local    *localReporter
}

func newHTTPReporter(opts Options, local *localReporter) *httpReporter {
	return &httpReporter{
		endpoint: fmt.Sprintf("%s/api/test-runs/%s/live-log",
			strings.TrimSuffix(opts.BackendURL, "/"), opts.RunID),
		client: &http.Client{Timeout: opts.Timeout},
		local:  local,
	}
}

func (r *httpReporter) Emit(ctx context.Context, step, message string, level Level) {
	r.local.Emit(ctx, step, message, level)

	event := Event{
		Timestamp: time.Now(),
		StepName:  step,
		Message:   message,
		Level:     level,
	}
	body, err := json.Marshal(event)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to encode live-log event.", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to build live-log request.", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Live-log delivery failed, event kept local.", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ctxlog.FromContext(ctx).Debug("Live-log delivery rejected, event kept local.", "status", resp.Status)
	}
}
