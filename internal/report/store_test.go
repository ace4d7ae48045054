package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/testgridgo/internal/artifacts"
)

func sampleDoc(script string, shots int) Document {
	doc := Document{
		Summary: Summary{
			TotalTests: 1, Passed: 1,
			StartTime: time.Now().Add(-time.Minute), EndTime: time.Now(),
			ScreenshotsCaptured: shots,
		},
		Results: []Result{{ScriptName: script, Status: StatusSuccess}},
		Status:  StatusSuccess,
	}
	for i := 0; i < shots; i++ {
		doc.Screenshots = append(doc.Screenshots, artifacts.Record{
			ScriptName: script, StepName: "step1", StepNumber: i + 1,
		})
	}
	return doc
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := &Store{Path: filepath.Join(t.TempDir(), "test_results.json")}
	doc := sampleDoc("demo", 2)

	// --- Act ---
	require.NoError(t, store.Save(context.Background(), doc, false))
	loaded, err := store.Load()

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, loaded.Summary.TotalTests, len(loaded.Results),
		"summary.total_tests must equal the number of result entries")
	require.Len(t, loaded.Screenshots, 2)
	require.Equal(t, StatusSuccess, loaded.Status)
}

func TestSave_MergePreservesScreenshotHistory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := &Store{Path: filepath.Join(t.TempDir(), "test_results.json")}
	require.NoError(t, store.Save(context.Background(), sampleDoc("first_run", 2), false))

	// --- Act ---
	// Second run against the same path without requesting a fresh document.
	require.NoError(t, store.Save(context.Background(), sampleDoc("second_run", 1), false))

	// --- Assert ---
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Screenshots, 3, "screenshot history must concatenate, not replace")
	require.Equal(t, "first_run", loaded.Screenshots[0].ScriptName)
	require.Equal(t, "second_run", loaded.Screenshots[2].ScriptName)
	require.Len(t, loaded.Results, 1, "results describe the latest run only")
	require.Equal(t, "second_run", loaded.Results[0].ScriptName)
}

func TestSave_FreshTruncatesHistory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	store := &Store{Path: filepath.Join(t.TempDir(), "test_results.json")}
	require.NoError(t, store.Save(context.Background(), sampleDoc("first_run", 2), false))

	// --- Act ---
	require.NoError(t, store.Save(context.Background(), sampleDoc("second_run", 1), true))

	// --- Assert ---
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Screenshots, 1)
	require.Equal(t, "second_run", loaded.Screenshots[0].ScriptName)
}

func TestSave_ReplacesCorruptDocument(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "test_results.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := &Store{Path: path}

	// --- Act ---
	err := store.Save(context.Background(), sampleDoc("demo", 1), false)

	// --- Assert ---
	require.NoError(t, err, "a corrupt prior document must not lose the current run")
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Screenshots, 1)
}

func TestSave_LeavesNoTemporaryFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	store := &Store{Path: filepath.Join(dir, "test_results.json")}

	// --- Act ---
	require.NoError(t, store.Save(context.Background(), sampleDoc("demo", 0), false))

	// --- Assert ---
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the renamed document may remain")
	require.Equal(t, "test_results.json", entries[0].Name())
}

func TestLoad_MissingFileIsEmptyDocument(t *testing.T) {
	t.Parallel()

	store := &Store{Path: filepath.Join(t.TempDir(), "missing.json")}
	doc, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, doc.Results)
	require.Empty(t, doc.Screenshots)
}
