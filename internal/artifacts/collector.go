package artifacts

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vk/testgridgo/internal/ctxlog"
	"github.com/vk/testgridgo/internal/fsutil"
)

// Extension is the artifact file type scripts are expected to produce.
const Extension = ".png"

// Collector harvests artifact files from the shared screenshot directory
// after a script has finished. Attribution is purely name-based: a file
// belongs to the script whose identity prefixes its filename, so concurrent
// scripts never contend for each other's artifacts.
type Collector struct {
	// Dir is the shared screenshot directory. A per-script subdirectory
	// Dir/<script>/ is scanned as well when present.
	Dir string
	// Identities is the full set of script identities in the run. A file is
	// attributed to the longest identity that prefixes its name, so an
	// identity that extends another ("login", "login_test") never captures
	// its neighbor's files. Empty falls back to plain prefix matching
	// against the harvested script alone.
	Identities []string
}

// Harvest returns the artifact records for one script, ordered by file
// modification time ascending (ties broken by filename) with sequence
// numbers 1..N assigned in that order. Unreadable files are skipped with a
// warning; a script with zero artifacts is a valid, empty result.
func (c *Collector) Harvest(ctx context.Context, script string) ([]Record, error) {
	logger := ctxlog.FromContext(ctx).With("script", script)

	paths, err := c.candidates(script)
	if err != nil {
		return nil, err
	}

	type capture struct {
		path    string
		modTime time.Time
	}
	captures := make([]capture, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("Skipping unreadable artifact.", "path", path, "error", err)
			continue
		}
		captures = append(captures, capture{path: path, modTime: info.ModTime()})
	}

	sort.Slice(captures, func(i, j int) bool {
		if !captures[i].modTime.Equal(captures[j].modTime) {
			return captures[i].modTime.Before(captures[j].modTime)
		}
		return filepath.Base(captures[i].path) < filepath.Base(captures[j].path)
	})

	var records []Record
	for _, shot := range captures {
		data, err := os.ReadFile(shot.path)
		if err != nil {
			logger.Warn("Skipping unreadable artifact.", "path", shot.path, "error", err)
			continue
		}
		name := filepath.Base(shot.path)
		records = append(records, Record{
			ScriptName: script,
			StepName:   StepLabel(script, name),
			Filename:   name,
			Data:       base64.StdEncoding.EncodeToString(data),
			Timestamp:  shot.modTime,
			StepNumber: len(records) + 1,
		})
	}

	if len(records) > 0 {
		logger.Info("📸 Harvested artifacts.", "count", len(records))
	}
	return records, nil
}

// candidates lists every artifact file attributable to the script: files in
// the shared directory the script claims, plus everything it claims in its
// own subdirectory.
func (c *Collector) candidates(script string) ([]string, error) {
	var paths []string

	for _, dir := range []string{c.Dir, filepath.Join(c.Dir, script)} {
		names, err := fsutil.ListFilesByExtension(dir, Extension)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to scan artifact directory %s: %w", dir, err)
		}
		for _, name := range names {
			if c.claims(script, name) {
				paths = append(paths, filepath.Join(dir, name))
			}
		}
	}
	return paths, nil
}

// claims reports whether the file name belongs to script. The name must carry
// the "<script>_" prefix, and no longer known identity may prefix it as well:
// the longest match wins, so each file belongs to exactly one script.
func (c *Collector) claims(script, name string) bool {
	if !strings.HasPrefix(name, script+"_") {
		return false
	}
	for _, other := range c.Identities {
		if len(other) > len(script) && strings.HasPrefix(name, other+"_") {
			return false
		}
	}
	return true
}

// StepLabel recovers the step name from an artifact filename. The accepted
// grammar, after stripping the "<script>_" prefix and the extension, is:
//
//	step_<digits>_<label>   capture-helper form; label may contain "_"
//	<label>_<digits>        trailing counter or timestamp form
//	<label>                 bare label
//
// Anything that fits none of these keeps the whole remainder as its label.
func StepLabel(script, filename string) string {
	rest := strings.TrimSuffix(filename, Extension)
	rest = strings.TrimPrefix(rest, script+"_")

	if parts := strings.SplitN(rest, "_", 3); len(parts) == 3 && parts[0] == "step" && allDigits(parts[1]) {
		return parts[2]
	}
	if i := strings.LastIndex(rest, "_"); i > 0 && allDigits(rest[i+1:]) {
		return rest[:i]
	}
	return rest
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
