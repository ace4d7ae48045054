package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// auxiliaryDirs are created alongside the screenshot directory so scripts
// always have the conventional artifact locations available.
var auxiliaryDirs = []string{"test-results", "videos"}

// markerFile keeps otherwise-empty artifact directories visible to version
// control and artifact upload steps.
const markerFile = ".gitkeep"

// artifactDirs lists every directory the run maintains, screenshot
// directory first.
func (a *App) artifactDirs() []string {
	dirs := []string{resolve(a.workDir, a.cfg.ScreenshotsDir)}
	for _, d := range auxiliaryDirs {
		dirs = append(dirs, filepath.Join(a.workDir, d))
	}
	return dirs
}

// ensureWorkspace creates the artifact directories and the result document's
// parent directory before any script runs.
func (a *App) ensureWorkspace(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	dirs := append(a.artifactDirs(), filepath.Dir(a.results.Path))
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}
	logger.Debug("Workspace directories ready.", "dirs", dirs)
	return nil
}

// markEmptyDirs drops a marker file into every artifact directory that is
// currently empty. It runs right after the workspace is prepared and again
// after the run, so the directories stay visible either way.
func (a *App) markEmptyDirs(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, dir := range a.artifactDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("Failed to inspect artifact directory.", "dir", dir, "error", err)
			continue
		}
		if len(entries) > 0 {
			continue
		}
		marker := filepath.Join(dir, markerFile)
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			logger.Warn("Failed to write directory marker.", "path", marker, "error", err)
		}
	}
}
