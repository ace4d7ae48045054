package progress

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewReporter_LocalOnlyWithoutRunID(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	// No run id configured: the remote call must be skipped entirely.
	reporter := NewReporter(Options{BackendURL: server.URL}, discardLogger())

	// --- Act ---
	reporter.Emit(context.Background(), "runner", "starting", LevelInfo)

	// --- Assert ---
	require.IsType(t, &localReporter{}, reporter)
	require.Zero(t, calls.Load())
}

func TestHTTPReporter_PostsEvent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	type received struct {
		path string
		body Event
	}
	got := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		got <- received{path: r.URL.Path, body: event}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	reporter := NewReporter(Options{
		BackendURL: server.URL,
		RunID:      "run-123",
		Transport:  "http",
		Timeout:    2 * time.Second,
	}, discardLogger())

	// --- Act ---
	reporter.Emit(context.Background(), "login_test", "Script starting", LevelInfo)

	// --- Assert ---
	select {
	case r := <-got:
		require.Equal(t, "/api/test-runs/run-123/live-log", r.path)
		require.Equal(t, "login_test", r.body.StepName)
		require.Equal(t, "Script starting", r.body.Message)
		require.Equal(t, LevelInfo, r.body.Level)
		require.False(t, r.body.Timestamp.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("expected a live-log POST")
	}
}

func TestHTTPReporter_SwallowsServerErrors(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	reporter := NewReporter(Options{
		BackendURL: server.URL,
		RunID:      "run-123",
		Timeout:    2 * time.Second,
	}, discardLogger())

	// --- Act & Assert ---
	// A rejected delivery must neither panic nor surface an error.
	reporter.Emit(context.Background(), "step", "msg", LevelError)
}

func TestHTTPReporter_SwallowsConnectionFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	reporter := NewReporter(Options{
		BackendURL: server.URL,
		RunID:      "run-123",
		Timeout:    500 * time.Millisecond,
	}, discardLogger())

	// --- Act & Assert ---
	done := make(chan struct{})
	go func() {
		reporter.Emit(context.Background(), "step", "msg", LevelInfo)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("emit must not block the run on a dead collector")
	}
}

func TestNewReporter_SelectsSocketIOTransport(t *testing.T) {
	t.Parallel()

	reporter := NewReporter(Options{
		BackendURL: "http://collector.invalid",
		RunID:      "run-123",
		Transport:  "socketio",
		Timeout:    time.Second,
	}, discardLogger())
	require.IsType(t, &socketIOReporter{}, reporter)
}

func TestSocketIOReporter_FallsBackWhenUnreachable(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reporter := newSocketIOReporter(Options{
		BackendURL: "http://127.0.0.1:1", // nothing listens on port 1
		RunID:      "run-123",
		Timeout:    500 * time.Millisecond,
	}, &localReporter{logger: discardLogger()})

	// --- Act ---
	done := make(chan struct{})
	go func() {
		reporter.Emit(context.Background(), "step", "msg", LevelInfo)
		reporter.Emit(context.Background(), "step", "again", LevelInfo)
		close(done)
	}()

	// --- Assert ---
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("socket.io fallback must not block the run")
	}
	require.True(t, reporter.broken, "a failed dial must not be retried on every event")
}
