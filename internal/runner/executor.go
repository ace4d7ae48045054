package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vk/testgridgo/internal/ctxlog"
	"github.com/vk/testgridgo/internal/scripts"
)

// HeadlessEnv is the declared contract between the runner and the scripts it
// executes: when set to "1", a script must suppress any visible UI surface.
// The legacy source patch in the scripts package covers authors that
// hard-code the flag instead.
const HeadlessEnv = "TESTGRID_HEADLESS"

// browsersPathEnv points the browser engine at a shared cache so scripts do
// not re-download it per run.
const browsersPathEnv = "PLAYWRIGHT_BROWSERS_PATH"

// Executor runs one script per call as a child process. It is safe for
// concurrent use; each call owns its own subprocess and buffers.
type Executor struct {
	// Interpreter is the runtime the script is handed to.
	Interpreter string
	// WorkDir is the working directory of every subprocess. It is the
	// orchestrator's own directory, not the script's, so relative artifact
	// paths land in the shared screenshot directory.
	WorkDir string
	// BrowsersPath is exported as the browser cache location when the
	// parent environment does not define one. Empty leaves it alone.
	BrowsersPath string
	// RunID, when set, is passed through to the subprocess as TEST_RUN_ID.
	RunID string
	// Timeout bounds one script's execution. Zero means no deadline.
	Timeout time.Duration
}

// Run executes the script to completion and returns its record, without
// artifacts; harvesting happens afterwards. Each script is attempted exactly
// once. Spawn and I/O failures are classified as OutcomeError and never
// propagate as Go errors: every execution produces a terminal record.
func (e *Executor) Run(ctx context.Context, script scripts.Script) Record {
	logger := ctxlog.FromContext(ctx).With("script", script.Name)

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	started := time.Now()
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.Interpreter, script.Path)
	cmd.Dir = e.WorkDir
	cmd.Env = e.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("▶️  Executing script.", "path", script.Path, "interpreter", e.Interpreter)
	err := cmd.Run()
	ended := time.Now()

	rec := Record{
		Script:    script.Name,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		StartedAt: started,
		EndedAt:   ended,
		Duration:  ended.Sub(started),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		rec.Outcome = OutcomeSuccess
		logger.Info("✅ Script succeeded.", "duration", rec.Duration)
	case errors.As(err, &exitErr):
		rec.Outcome = OutcomeFailed
		rec.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			rec.Cause = fmt.Sprintf("script exceeded timeout of %s", e.Timeout)
		}
		logger.Warn("❌ Script failed.", "exitCode", rec.ExitCode, "duration", rec.Duration)
	default:
		rec.Outcome = OutcomeError
		rec.ExitCode = -1
		rec.Cause = err.Error()
		logger.Error("Script could not be executed.", "error", err)
	}

	return rec
}

// environ builds the subprocess environment: the parent's environment plus
// the headless contract, the run correlation id, and a browser cache default
// when the parent profile lacks one.
func (e *Executor) environ() []string {
	env := os.Environ()
	env = append(env, HeadlessEnv+"=1")
	if e.RunID != "" {
		env = append(env, "TEST_RUN_ID="+e.RunID)
	}
	if e.BrowsersPath != "" && !envDefined(env, browsersPathEnv) {
		env = append(env, browsersPathEnv+"="+e.BrowsersPath)
	}
	return env
}

func envDefined(env []string, name string) bool {
	prefix := name + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}
