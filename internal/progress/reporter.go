// Package progress emits per-step lifecycle events, optionally streaming
// them to a remote collector. The remote channel is strictly best-effort: a
// transport failure is logged locally and never fails or blocks the run.
//
// A Reporter is constructed exactly once at startup from configuration and
// passed explicitly to every component that emits events; there is no
// package-level ambient reporter.
package progress

import (
	"context"
	"log/slog"
	"time"
)

// Level is the severity of a progress event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is the wire shape of one live-log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	StepName  string    `json:"step_name"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// Reporter emits one lifecycle event. Implementations must be safe for
// concurrent use and must never return transport problems to the caller.
type Reporter interface {
	Emit(ctx context.Context, step, message string, level Level)
}

// Options configures NewReporter.
type Options struct {
	// BackendURL is the remote collector base URL. Remote reporting is
	// disabled unless both BackendURL and RunID are set.
	BackendURL string
	// RunID correlates events with a test run on the collector side.
	RunID string
	// Transport selects the remote channel: "http" (default) or "socketio".
	Transport string
	// Timeout bounds one delivery attempt.
	Timeout time.Duration
}

// NewReporter builds the reporter for the given configuration: local-only
// when no collector is configured, otherwise the selected remote transport
// wrapped around the local one.
func NewReporter(opts Options, logger *slog.Logger) Reporter {
	local := &localReporter{logger: logger}
	if opts.BackendURL == "" || opts.RunID == "" {
		return local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Transport == "socketio" {
		return newSocketIOReporter(opts, local)
	}
	return newHTTPReporter(opts, local)
}

// localReporter writes events to the structured log. It is both the default
// single-process mode and the fallback sink of every remote transport.
type localReporter struct {
	logger *slog.Logger
}

func (r *localReporter) Emit(ctx context.Context, step, message string, level Level) {
	logger := r.logger.With("step", step)
	switch level {
	case LevelError:
		logger.Error(message)
	case LevelWarning:
		logger.Warn(message)
	default:
		logger.Info(message)
	}
}
