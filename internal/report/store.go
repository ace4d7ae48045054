package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// Store persists the result document. Writes are atomic at whole-document
// granularity: the document is written to a temporary file in the same
// directory and renamed into place, so readers never observe a partial
// document.
type Store struct {
	// Path is the location of the result document.
	Path string
}

// Load reads and decodes the document at the store path. A missing file is
// not an error; it yields an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read result document %s: %w", s.Path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode result document %s: %w", s.Path, err)
	}
	return &doc, nil
}

// Save persists doc. Unless fresh is set, the screenshot history of any
// existing document is preserved: the new run's screenshots are appended
// after the prior ones, never replacing them. Summary, results, and status
// always describe the latest run.
func (s *Store) Save(ctx context.Context, doc Document, fresh bool) error {
	logger := ctxlog.FromContext(ctx)

	if !fresh {
		prior, err := s.Load()
		if err != nil {
			// An unreadable prior document must not lose the current run;
			// start over from the current run's data alone.
			logger.Warn("Existing result document is unreadable, replacing it.", "path", s.Path, "error", err)
		} else if len(prior.Screenshots) > 0 {
			doc.Screenshots = append(prior.Screenshots, doc.Screenshots...)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result document: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary result file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary result file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to move result document into place: %w", err)
	}

	logger.Info("💾 Result document saved.", "path", s.Path, "screenshots", len(doc.Screenshots))
	return nil
}
