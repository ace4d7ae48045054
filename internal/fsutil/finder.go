// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"sort"
	"strings"
)

// ListFilesByExtension returns the names of all regular files directly inside
// dir that end with the given extension, sorted lexically. It does not
// recurse into subdirectories.
func ListFilesByExtension(dir string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), extension) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return files, nil
}
