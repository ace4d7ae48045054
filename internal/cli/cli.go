// Package cli parses command-line arguments into the resolved runtime
// configuration, layering flags over the environment, the optional HCL
// configuration file, and the built-in defaults.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vk/testgridgo/internal/config"
	"github.com/vk/testgridgo/internal/hclcfg"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns the resolved Options, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*config.Options, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("testgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
testgridgo - a browser test-script orchestration runner.

Discovers test scripts, runs each one as an isolated subprocess, harvests
the screenshots they produce, and aggregates everything into a single
result document.

Usage:
  testgridgo [options] [SCRIPTS_DIR]

Arguments:
  SCRIPTS_DIR
    Directory containing the test scripts. Defaults to ./scripts, falling
    back to the working directory when that does not exist.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL configuration file. Defaults to ./"+hclcfg.DefaultFilename+" when present.")
	scriptsFlag := flagSet.String("scripts", "", "Directory containing the test scripts.")
	sFlag := flagSet.String("s", "", "Directory containing the test scripts (shorthand).")
	workDirFlag := flagSet.String("workdir", "", "Working directory scripts run in and paths resolve against.")
	resultsFlag := flagSet.String("results", "", "Path of the result document.")
	freshFlag := flagSet.Bool("fresh", false, "Start a fresh result document instead of merging into an existing one.")
	workersFlag := flagSet.Int("workers", 0, "Maximum number of scripts running concurrently. 0 is unbounded.")
	interpreterFlag := flagSet.String("interpreter", "", "Runtime used to execute each script.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Per-script execution timeout. 0 disables the deadline.")
	patchFlag := flagSet.Bool("patch", true, "Apply the legacy headless compatibility patch to scripts before running them.")
	placeholderFlag := flagSet.Bool("placeholder", false, "Capture a documentation screenshot for scripts that produce none.")
	installFlag := flagSet.Bool("install-browsers", false, "Provision the browser engine before running scripts.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	opts := config.Defaults()

	configPath := *configFlag
	if configPath == "" {
		if _, err := os.Stat(hclcfg.DefaultFilename); err == nil {
			configPath = hclcfg.DefaultFilename
		}
	}
	if configPath != "" {
		if err := hclcfg.Load(configPath, opts); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		slog.Debug("Configuration file applied.", "path", configPath)
	}

	opts.ApplyEnv(os.Getenv)

	// Flags override every lower layer, but only when explicitly set.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scripts":
			opts.ScriptsDir = *scriptsFlag
		case "s":
			opts.ScriptsDir = *sFlag
		case "workdir":
			opts.WorkDir = *workDirFlag
		case "results":
			opts.ResultsPath = *resultsFlag
		case "fresh":
			opts.FreshResults = *freshFlag
		case "workers":
			opts.Workers = *workersFlag
		case "interpreter":
			opts.Interpreter = *interpreterFlag
		case "timeout":
			opts.ScriptTimeout = *timeoutFlag
		case "patch":
			opts.PatchEnabled = *patchFlag
		case "placeholder":
			opts.PlaceholderEnabled = *placeholderFlag
		case "install-browsers":
			opts.InstallBrowsers = *installFlag
		case "healthcheck-port":
			opts.HealthcheckPort = *healthPortFlag
		case "log-format":
			opts.LogFormat = *logFormatFlag
		case "log-level":
			opts.LogLevel = *logLevelFlag
		}
	})
	if flagSet.NArg() > 0 {
		opts.ScriptsDir = flagSet.Arg(0)
	}

	opts.LogFormat = strings.ToLower(opts.LogFormat)
	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	opts.LogLevel = strings.ToLower(opts.LogLevel)
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if opts.Workers < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must be >= 0"}
	}
	if opts.ScriptTimeout < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid timeout: must be >= 0"}
	}
	if opts.Transport != "http" && opts.Transport != "socketio" {
		return nil, false, &ExitError{Code: 2, Message: "invalid live-log transport: must be 'http' or 'socketio'"}
	}
	if opts.ScriptTimeout > 0 && opts.ScriptTimeout < time.Second {
		slog.Warn("Script timeout is below one second; most browser scripts will not finish.", "timeout", opts.ScriptTimeout)
	}
	slog.Debug("CLI parameter validation complete.")

	return opts, false, nil
}
