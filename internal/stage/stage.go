// Package stage holds the filesystem plumbing shared by every pipeline stage:
// staging/cleaning of output directories, the on-disk layout contract, and the
// error kinds callers branch on.
package stage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Clean recursively removes every entry under dir and then dir itself. It fails
// if dir does not exist; filesystem errors (permission denials included)
// propagate unmodified.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := Clean(path); err != nil {
				return err
			}
			continue
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return os.Remove(dir)
}

// Ensure creates dir and any missing ancestors. It is idempotent.
func Ensure(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory path is required")
	}
	return os.MkdirAll(dir, 0o755)
}
