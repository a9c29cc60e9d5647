// Package filesys provides the small set of file-system utilities the
// storage engine needs for directory and file lifecycle management:
// creating the segment directory, checking what already exists there, and
// removing segment files during a reset.
package filesys

import (
	"errors"
	"os"
)

// ErrIsNotDir is returned when a path expected to be (or become) a
// directory turns out to be a regular file.
var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at the specified path with the given
// permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns the stat error.
//
// It also returns ErrIsNotDir if the existing path is a file.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if !force && !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// DeleteFile deletes the file at the specified `filePath`. Deleting an
// already-absent file is not an error, matching the idempotent-reset
// contract the engine relies on.
func DeleteFile(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists checks if a file or directory at the given `file` path exists.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
