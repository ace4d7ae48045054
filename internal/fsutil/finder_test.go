package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFilesByExtension(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	for _, name := range []string{"b.py", "a.py", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.py"), 0o755))

	// --- Act ---
	files, err := ListFilesByExtension(dir, ".py")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{"a.py", "b.py"}, files, "expected sorted .py files only, with directories skipped")
}

func TestListFilesByExtension_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := ListFilesByExtension(filepath.Join(t.TempDir(), "nope"), ".py")
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}
