// Package config defines the resolved runtime configuration for the
// application. Values are assembled in layers: built-in defaults, then an
// optional HCL configuration file, then process environment variables, then
// command-line flags. The hclcfg package provides the file layer.
package config

import "time"

// Options is the fully resolved configuration consumed by the app.
type Options struct {
	// WorkDir is the directory all relative paths are resolved against and
	// the working directory every script subprocess runs in. Scripts write
	// artifacts relative to it, which is how they land in the shared
	// screenshot directory. Empty means the process working directory.
	WorkDir string

	// ScriptsDir is the directory scanned for test scripts, relative to
	// WorkDir. When it does not exist, discovery falls back to WorkDir.
	ScriptsDir string

	// ScriptExtension selects which files are considered scripts.
	ScriptExtension string

	// EntryFile is the legacy runner entry filename, always excluded from
	// discovery so the runner can never schedule itself.
	EntryFile string

	// ReservedPrefix marks generated helper files that must never be
	// executed as user scripts.
	ReservedPrefix string

	// ExcludeGlobs holds additional user-supplied exclusion patterns.
	ExcludeGlobs []string

	// Interpreter is the runtime used to execute each script.
	Interpreter string

	// ScriptTimeout bounds a single script's execution. Zero disables the
	// deadline; a hung script then holds its slot until the process exits.
	ScriptTimeout time.Duration

	// Workers caps how many scripts run concurrently. Zero means no cap:
	// every discovered script gets its own slot immediately.
	Workers int

	ScreenshotsDir string
	ResultsPath    string

	// FreshResults truncates any existing result document instead of
	// merging into it.
	FreshResults bool

	// PatchEnabled toggles the legacy compatibility patch that rewrites
	// hard-coded headless flags in script source before execution.
	PatchEnabled bool

	// PlaceholderEnabled captures a documentation screenshot for scripts
	// that produced no artifacts of their own. Requires a browser runtime.
	PlaceholderEnabled bool

	// InstallBrowsers provisions the browser engine at startup.
	InstallBrowsers bool

	// BrowsersPath is exported to subprocesses as the browser-engine cache
	// location when the parent environment does not already define one.
	BrowsersPath string

	// BackendURL and RunID configure the remote live-log collector. Remote
	// reporting is skipped entirely unless both are set.
	BackendURL string
	RunID      string

	// Transport selects the live-log transport: "http" or "socketio".
	Transport string

	// EmitTimeout bounds a single live-log delivery attempt.
	EmitTimeout time.Duration

	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// Defaults returns the built-in configuration, matching the conventions the
// legacy runner established: a scripts/ directory of .py files, a shared
// screenshots/ directory, and test_results.json as the result store.
func Defaults() *Options {
	return &Options{
		ScriptsDir:      "scripts",
		ScriptExtension: ".py",
		EntryFile:       "runner.py",
		ReservedPrefix:  "enhanced_",
		Interpreter:     "python3",
		ScreenshotsDir:  "screenshots",
		ResultsPath:     "test_results.json",
		PatchEnabled:    true,
		Transport:       "http",
		EmitTimeout:     5 * time.Second,
		LogFormat:       "text",
		LogLevel:        "info",
	}
}

// ApplyEnv fills collector settings from the process environment when the
// file and default layers left them empty. getenv is injected for testing.
func (o *Options) ApplyEnv(getenv func(string) string) {
	if o.BackendURL == "" {
		o.BackendURL = getenv("BACKEND_URL")
	}
	if o.RunID == "" {
		o.RunID = getenv("TEST_RUN_ID")
	}
	if o.BrowsersPath == "" {
		o.BrowsersPath = getenv("PLAYWRIGHT_BROWSERS_PATH")
	}
}
