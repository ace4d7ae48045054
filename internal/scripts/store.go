// Package scripts locates candidate test scripts and prepares them for
// non-interactive execution.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/vk/testgridgo/internal/ctxlog"
	"github.com/vk/testgridgo/internal/fsutil"
)

// ErrNoScripts is returned by Discover when the scan yields no eligible
// scripts. The caller decides whether this fails the whole run.
var ErrNoScripts = errors.New("no test scripts found")

// Script is the identity of one discovered test script. Name is the base
// filename without extension and namespaces the script's artifacts and
// records for the rest of the run.
type Script struct {
	Name string
	Path string
}

// Store discovers test scripts in a configured directory, falling back to a
// secondary location when the primary one does not exist.
type Store struct {
	dir            string
	fallbackDir    string
	extension      string
	reservedPrefix string
	entryFile      string
	excludes       []glob.Glob
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Dir            string
	FallbackDir    string
	Extension      string
	ReservedPrefix string
	EntryFile      string
	ExcludeGlobs   []string
}

// NewStore compiles the exclusion patterns and returns a ready Store.
func NewStore(opts StoreOptions) (*Store, error) {
	excludes := make([]glob.Glob, 0, len(opts.ExcludeGlobs))
	for _, pattern := range opts.ExcludeGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}
	return &Store{
		dir:            opts.Dir,
		fallbackDir:    opts.FallbackDir,
		extension:      opts.Extension,
		reservedPrefix: opts.ReservedPrefix,
		entryFile:      opts.EntryFile,
		excludes:       excludes,
	}, nil
}

// Discover scans the script directory and returns the eligible scripts in
// lexical filename order. Files carrying the reserved prefix, the runner's
// own entry file, and anything matching an exclusion pattern are filtered
// out. The only side effects are directory reads.
func (s *Store) Discover(ctx context.Context) ([]Script, error) {
	logger := ctxlog.FromContext(ctx)

	dir := s.dir
	if _, err := os.Stat(dir); err != nil {
		logger.Debug("Scripts directory not found, using fallback.", "dir", dir, "fallback", s.fallbackDir)
		dir = s.fallbackDir
	}

	names, err := fsutil.ListFilesByExtension(dir, s.extension)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scripts directory %s: %w", dir, err)
	}

	var found []Script
	for _, name := range names {
		if s.excluded(name) {
			logger.Debug("Skipping excluded file.", "file", name)
			continue
		}
		found = append(found, Script{
			Name: strings.TrimSuffix(name, s.extension),
			Path: filepath.Join(dir, name),
		})
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoScripts, dir)
	}

	logger.Info("Discovered test scripts.", "dir", dir, "count", len(found), "scanned", len(names))
	return found, nil
}

func (s *Store) excluded(name string) bool {
	if s.entryFile != "" && name == s.entryFile {
		return true
	}
	if s.reservedPrefix != "" && strings.HasPrefix(name, s.reservedPrefix) {
		return true
	}
	for _, g := range s.excludes {
		if g.Match(name) {
			return true
		}
	}
	return false
}
