package artifacts

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// placeholderStep is the step label given to documentation captures.
const placeholderStep = "documentation"

// Placeholder captures a single documentation screenshot for scripts that
// produced no artifacts of their own, so downstream consumers always see at
// least one visual record per script. It is an optional stage, never a core
// guarantee: any failure is logged and swallowed.
type Placeholder struct {
	// Dir is the shared screenshot directory the capture is written into.
	Dir string
}

// Install provisions the browser engine. Best-effort: callers treat a
// failure as a warning, matching how the legacy runner handled it.
func Install() error {
	return playwright.Install(&playwright.RunOptions{Verbose: false})
}

// Capture renders a small summary page in a headless browser, screenshots
// it, writes the file under the script's identity, and returns the record.
func (p *Placeholder) Capture(ctx context.Context, script string) (*Record, error) {
	logger := ctxlog.FromContext(ctx).With("script", script)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser runtime: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--window-size=1920,1080"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	now := time.Now()
	if err := page.SetContent(placeholderHTML(script, now)); err != nil {
		return nil, fmt.Errorf("failed to render documentation page: %w", err)
	}

	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%d%s", script, placeholderStep, now.Unix(), Extension)
	path := filepath.Join(p.Dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}

	logger.Info("📸 Captured documentation screenshot.", "file", filename)
	return &Record{
		ScriptName:  script,
		StepName:    placeholderStep,
		Description: fmt.Sprintf("Test script %s executed", script),
		Filename:    filename,
		Data:        base64.StdEncoding.EncodeToString(data),
		Timestamp:   now,
		StepNumber:  1,
	}, nil
}

func placeholderHTML(script string, at time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; background: #fafafa; padding: 48px;">
  <h1>%s</h1>
  <p>Script executed at %s.</p>
  <p>No screenshots were produced by the script itself; this capture documents the run.</p>
</body>
</html>`, html.EscapeString(script), at.Format(time.RFC3339))
}
