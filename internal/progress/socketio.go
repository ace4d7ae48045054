package progress

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// liveLogEvent is the socket.io event name events are emitted under.
const liveLogEvent = "live-log"

// socketIOReporter streams events to the collector over a socket.io
// connection. The connection is established lazily on the first emit; if it
// cannot be established within the configured timeout, the reporter marks
// itself broken and all further events stay local.
type socketIOReporter struct {
	backendURL string
	runID      string
	timeout    time.Duration
	local      *localReporter

	mu        sync.Mutex
	io        *socket.Socket
	connected atomic.Bool
	broken    bool
}

func newSocketIOReporter(opts Options, local *localReporter) *socketIOReporter {
	return &socketIOReporter{
		backendURL: opts.BackendURL,
		runID:      opts.RunID,
		timeout:    opts.Timeout,
		local:      local,
	}
}

func (r *socketIOReporter) Emit(ctx context.Context, step, message string, level Level) {
	r.local.Emit(ctx, step, message, level)

	if err := r.ensureConnected(ctx); err != nil {
		ctxlog.FromContext(ctx).Debug("Live-log stream unavailable, event kept local.", "error", err)
		return
	}

	r.io.Emit(liveLogEvent, map[string]any{
		"run_id":    r.runID,
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"step_name": step,
		"message":   message,
		"level":     string(level),
	})
}

// ensureConnected dials the collector once. Subsequent calls reuse the
// connection or fail fast when the first dial did not succeed.
func (r *socketIOReporter) ensureConnected(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.broken {
		return fmt.Errorf("live-log stream previously failed to connect")
	}
	if r.io != nil && r.connected.Load() {
		return nil
	}
	if r.io != nil {
		return fmt.Errorf("live-log stream not connected yet")
	}

	parsed, err := url.Parse(r.backendURL)
	if err != nil {
		r.broken = true
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)

	opts := socket.DefaultOptions()
	if parsed.Path != "" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	dialCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ready := make(chan error, 1)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	io.On(types.EventName("connect"), func(...any) {
		r.connected.Store(true)
		select {
		case ready <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case ready <- err:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(...any) {
		r.connected.Store(false)
	})

	io.Connect()

	select {
	case <-dialCtx.Done():
		io.Disconnect()
		r.broken = true
		return fmt.Errorf("timed out dialing live-log stream")
	case err := <-ready:
		if err != nil {
			io.Disconnect()
			r.broken = true
			return fmt.Errorf("failed to connect live-log stream: %w", err)
		}
		r.io = io
		return nil
	}
}
