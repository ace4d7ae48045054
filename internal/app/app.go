// Package app wires the runner's components together and drives a full test
// run: discovery, per-script execution, artifact harvesting, aggregation,
// and result persistence.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/testgridgo/internal/artifacts"
	"github.com/vk/testgridgo/internal/config"
	"github.com/vk/testgridgo/internal/progress"
	"github.com/vk/testgridgo/internal/report"
	"github.com/vk/testgridgo/internal/runner"
	"github.com/vk/testgridgo/internal/scripts"
)

// App encapsulates the runner's dependencies, configuration, and lifecycle.
// Every collaborator, including the progress reporter, is constructed here
// once and passed by reference; nothing reaches for ambient globals.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     *config.Options
	workDir string

	// runID correlates this run's records and events. It is the configured
	// collector run id when one is supplied, otherwise a generated one.
	runID string

	store       *scripts.Store
	patcher     *scripts.Patcher
	executor    *runner.Executor
	collector   *artifacts.Collector
	placeholder *artifacts.Placeholder
	aggregator  *report.Aggregator
	results     *report.Store
	reporter    progress.Reporter

	httpServer *http.Server
}

// NewApp builds a fully initialized App from resolved configuration,
// including its own isolated logger.
func NewApp(outW io.Writer, cfg *config.Options) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	workDir := cfg.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workDir = wd
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	store, err := scripts.NewStore(scripts.StoreOptions{
		Dir:            resolve(workDir, cfg.ScriptsDir),
		FallbackDir:    workDir,
		Extension:      cfg.ScriptExtension,
		ReservedPrefix: cfg.ReservedPrefix,
		EntryFile:      cfg.EntryFile,
		ExcludeGlobs:   cfg.ExcludeGlobs,
	})
	if err != nil {
		return nil, err
	}

	screenshotsDir := resolve(workDir, cfg.ScreenshotsDir)

	app := &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		workDir: workDir,
		runID:   runID,
		store:   store,
		patcher: scripts.NewPatcher(),
		executor: &runner.Executor{
			Interpreter:  cfg.Interpreter,
			WorkDir:      workDir,
			BrowsersPath: cfg.BrowsersPath,
			RunID:        runID,
			Timeout:      cfg.ScriptTimeout,
		},
		collector:  &artifacts.Collector{Dir: screenshotsDir},
		aggregator: report.NewAggregator(),
		results:    &report.Store{Path: resolve(workDir, cfg.ResultsPath)},
		reporter: progress.NewReporter(progress.Options{
			BackendURL: cfg.BackendURL,
			RunID:      cfg.RunID,
			Transport:  cfg.Transport,
			Timeout:    cfg.EmitTimeout,
		}, logger),
	}
	if cfg.PlaceholderEnabled {
		app.placeholder = &artifacts.Placeholder{Dir: screenshotsDir}
	}
	return app, nil
}

// resolve joins path onto base unless path is already absolute.
func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
