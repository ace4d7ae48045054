package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsWithPositionalDir(t *testing.T) {
	// Parse reads BACKEND_URL/TEST_RUN_ID; pin them for determinism.
	t.Setenv("BACKEND_URL", "")
	t.Setenv("TEST_RUN_ID", "")

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	opts, shouldExit, err := Parse([]string{"my-scripts"}, out)

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "my-scripts", opts.ScriptsDir)
	require.Equal(t, ".py", opts.ScriptExtension)
	require.Equal(t, "test_results.json", opts.ResultsPath)
	require.True(t, opts.PatchEnabled)
	require.False(t, opts.PlaceholderEnabled)
	require.Zero(t, opts.Workers)
}

func TestParse_FlagsOverride(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("TEST_RUN_ID", "")

	out := &bytes.Buffer{}
	opts, shouldExit, err := Parse([]string{
		"-scripts", "e2e",
		"-interpreter", "/bin/sh",
		"-workers", "2",
		"-timeout", "45s",
		"-patch=false",
		"-fresh",
		"-log-level", "debug",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "e2e", opts.ScriptsDir)
	require.Equal(t, "/bin/sh", opts.Interpreter)
	require.Equal(t, 2, opts.Workers)
	require.Equal(t, 45*time.Second, opts.ScriptTimeout)
	require.False(t, opts.PatchEnabled)
	require.True(t, opts.FreshResults)
	require.Equal(t, "debug", opts.LogLevel)
}

func TestParse_EnvSuppliesCollector(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://collector.example.com")
	t.Setenv("TEST_RUN_ID", "run-7")

	opts, _, err := Parse(nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "https://collector.example.com", opts.BackendURL)
	require.Equal(t, "run-7", opts.RunID)
}

func TestParse_ConfigFileFlag(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("TEST_RUN_ID", "")

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "custom.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
runner {
  workers = 8
}
`), 0o644))

	// --- Act ---
	// The flag layer must still win over the file layer.
	opts, _, err := Parse([]string{"-config", path, "-workers", "3"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 3, opts.Workers)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, shouldExit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]string{"-log-level", "loud"}, &bytes.Buffer{})
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "invalid log-level")
}

func TestParse_UnknownFlag(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]string{"--this-is-not-a-valid-flag"}, &bytes.Buffer{})
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_NegativeWorkers(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]string{"-workers", "-1"}, &bytes.Buffer{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid workers")
}
