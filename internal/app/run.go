package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/testgridgo/internal/artifacts"
	"github.com/vk/testgridgo/internal/ctxlog"
	"github.com/vk/testgridgo/internal/progress"
	"github.com/vk/testgridgo/internal/report"
	"github.com/vk/testgridgo/internal/runner"
	"github.com/vk/testgridgo/internal/scripts"
)

// Run executes the whole batch: prepare the workspace, discover scripts, run
// every script concurrently, then finalize and persist the run summary. It
// returns a non-nil error when the run failed to start or when any script
// did not succeed; per-script failures are otherwise captured as data, never
// propagated past their own task.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	start := time.Now()

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheck(ctx)
		defer a.stopHealthcheck(ctx)
	}

	if err := a.ensureWorkspace(ctx); err != nil {
		return err
	}
	a.markEmptyDirs(ctx)

	if a.cfg.InstallBrowsers {
		a.logger.Info("📦 Installing browser engine...")
		if err := artifacts.Install(); err != nil {
			a.logger.Warn("Browser installation failed, scripts may provision their own.", "error", err)
		}
	}

	a.reporter.Emit(ctx, "runner", "Test run starting", progress.LevelInfo)

	found, err := a.store.Discover(ctx)
	if err != nil {
		if errors.Is(err, scripts.ErrNoScripts) {
			a.reporter.Emit(ctx, "discovery", "No test scripts found", progress.LevelError)
			fmt.Fprintln(a.outW, "❌ No test scripts found!")
		}
		return err
	}
	names := make([]string, len(found))
	for i, sc := range found {
		names[i] = sc.Name
		a.logger.Info("Scheduled script.", "script", sc.Name)
	}
	// The collector needs the whole identity set so a file named by one
	// script is never claimed by another whose identity prefixes it.
	a.collector.Identities = names

	a.logger.Info("🚀 Starting concurrent execution...", "scripts", len(found), "workers", a.cfg.Workers)

	// One task per script. A worker cap, when configured, is enforced with a
	// semaphore channel; the default leaves every script its own slot.
	var sem chan struct{}
	if a.cfg.Workers > 0 {
		sem = make(chan struct{}, a.cfg.Workers)
	}
	var wg sync.WaitGroup
	for _, sc := range found {
		wg.Add(1)
		go func(sc scripts.Script) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			a.runScript(ctx, sc)
		}(sc)
	}
	wg.Wait()
	end := time.Now()

	a.logger.Info("🏁 Execution finished.", "duration", end.Sub(start))

	doc := a.aggregator.Finalize(start, end, a.runID)
	if err := a.results.Save(ctx, doc, a.cfg.FreshResults); err != nil {
		// Best-effort persistence: the exit code keeps reflecting the test
		// outcome, but the operator must see this loudly.
		a.logger.Error("PERSISTENCE FAILED: result document was not written.", "path", a.results.Path, "error", err)
		a.reporter.Emit(ctx, "persistence", fmt.Sprintf("Failed to persist results: %v", err), progress.LevelError)
	}

	a.markEmptyDirs(ctx)
	a.printSummary(doc)

	if doc.Summary.Failed > 0 {
		a.reporter.Emit(ctx, "runner", "Test run finished with failures", progress.LevelError)
		return fmt.Errorf("%d of %d scripts failed", doc.Summary.Failed, doc.Summary.TotalTests)
	}
	a.reporter.Emit(ctx, "runner", "Test run finished", progress.LevelSuccess)
	return nil
}

// runScript drives one script's lifecycle. The steps are strictly
// sequential for the script itself and fully independent of every other
// script: patch, execute, harvest, append.
func (a *App) runScript(ctx context.Context, sc scripts.Script) {
	logger := ctxlog.FromContext(ctx).With("script", sc.Name)
	a.reporter.Emit(ctx, sc.Name, "Script starting", progress.LevelInfo)

	if a.cfg.PatchEnabled {
		if _, err := a.patcher.EnsureNonInteractive(ctx, sc.Path); err != nil {
			logger.Warn("Headless patch failed, running script unmodified.", "error", err)
			a.reporter.Emit(ctx, sc.Name, "Headless patch failed, running unmodified", progress.LevelWarning)
		}
	}

	rec := a.executor.Run(ctx, sc)

	arts, err := a.collector.Harvest(ctx, sc.Name)
	if err != nil {
		logger.Warn("Artifact harvest failed.", "error", err)
	}
	if len(arts) == 0 && a.placeholder != nil {
		if ph, err := a.placeholder.Capture(ctx, sc.Name); err != nil {
			logger.Warn("Documentation screenshot failed.", "error", err)
		} else {
			arts = append(arts, *ph)
		}
	}
	rec.Artifacts = arts

	a.aggregator.Append(rec)

	switch rec.Outcome {
	case runner.OutcomeSuccess:
		a.reporter.Emit(ctx, sc.Name,
			fmt.Sprintf("Script completed in %.2fs with %d screenshots", rec.Duration.Seconds(), len(arts)),
			progress.LevelSuccess)
	case runner.OutcomeFailed:
		a.reporter.Emit(ctx, sc.Name,
			fmt.Sprintf("Script failed with exit code %d", rec.ExitCode), progress.LevelError)
	default:
		a.reporter.Emit(ctx, sc.Name,
			fmt.Sprintf("Script could not be executed: %s", rec.Cause), progress.LevelError)
	}
}

// printSummary writes the human-readable run summary. It is printed
// regardless of individual failures.
func (a *App) printSummary(doc report.Document) {
	line := strings.Repeat("=", 60)

	fmt.Fprintf(a.outW, "\n%s\n", line)
	fmt.Fprintln(a.outW, "📊 TEST EXECUTION SUMMARY")
	fmt.Fprintln(a.outW, line)
	for _, res := range doc.Results {
		mark := "✅"
		if res.Status != report.StatusSuccess {
			mark = "❌"
		}
		fmt.Fprintf(a.outW, "%s %-32s %-8s %7.2fs %3d 📸\n",
			mark, res.ScriptName, res.Status, res.Duration, res.ScreenshotsCaptured)
	}
	fmt.Fprintln(a.outW, line)
	fmt.Fprintf(a.outW, "Total Tests: %d\n", doc.Summary.TotalTests)
	fmt.Fprintf(a.outW, "✅ Passed: %d\n", doc.Summary.Passed)
	fmt.Fprintf(a.outW, "❌ Failed: %d\n", doc.Summary.Failed)
	fmt.Fprintf(a.outW, "📸 Screenshots: %d\n", doc.Summary.ScreenshotsCaptured)
	fmt.Fprintf(a.outW, "⏱️ Total Duration: %.2fs\n", doc.Summary.Duration)
	fmt.Fprintln(a.outW, line)
}
