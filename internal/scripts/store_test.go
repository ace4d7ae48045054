package scripts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("pass\n"), 0o644))
	}
}

func newTestStore(t *testing.T, dir, fallback string, excludes ...string) *Store {
	t.Helper()
	store, err := NewStore(StoreOptions{
		Dir:            dir,
		FallbackDir:    fallback,
		Extension:      ".py",
		ReservedPrefix: "enhanced_",
		EntryFile:      "runner.py",
		ExcludeGlobs:   excludes,
	})
	require.NoError(t, err)
	return store
}

func TestDiscover_FiltersReservedAndExcluded(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Three eligible scripts, plus one of every excluded category.
	dir := t.TempDir()
	writeFiles(t, dir,
		"checkout_test.py", "login_test.py", "search_test.py",
		"enhanced_login_test.py", // reserved prefix
		"runner.py",              // the runner's own entry file
		"wip_scratch.py",         // user exclusion pattern
		"README.md",              // wrong extension
	)
	store := newTestStore(t, dir, dir, "wip_*")

	// --- Act ---
	found, err := store.Discover(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, found, 3)
	names := make([]string, 0, len(found))
	for _, sc := range found {
		names = append(names, sc.Name)
	}
	require.Equal(t, []string{"checkout_test", "login_test", "search_test"}, names,
		"identities must be extension-free base names in lexical order")
	for _, sc := range found {
		require.Equal(t, filepath.Join(dir, sc.Name+".py"), sc.Path)
	}
}

func TestDiscover_FallsBackWhenPrimaryMissing(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	fallback := t.TempDir()
	writeFiles(t, fallback, "smoke_test.py")
	store := newTestStore(t, filepath.Join(fallback, "missing"), fallback)

	// --- Act ---
	found, err := store.Discover(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "smoke_test", found[0].Name)
}

func TestDiscover_NoScripts(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Only excluded files present: the result set must be empty.
	dir := t.TempDir()
	writeFiles(t, dir, "enhanced_helper.py", "runner.py")
	store := newTestStore(t, dir, dir)

	// --- Act ---
	found, err := store.Discover(context.Background())

	// --- Assert ---
	require.ErrorIs(t, err, ErrNoScripts)
	require.Empty(t, found)
}

func TestNewStore_InvalidExclude(t *testing.T) {
	t.Parallel()

	_, err := NewStore(StoreOptions{Extension: ".py", ExcludeGlobs: []string{"[bad"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid exclude pattern")
}
