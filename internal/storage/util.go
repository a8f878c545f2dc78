package storage

import (
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory holding a database file.
func EnsureParentDir(file string) error {
	dir := filepath.Dir(file)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
