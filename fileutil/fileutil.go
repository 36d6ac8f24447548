package fileutil

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileExists returns true if a regular file with the given path exists.
// Directories and other special files do not count.
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}

// IsDir returns true if a directory with the given path exists.
func IsDir(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.IsDir()
}

// WriteFile writes b to filename, creating any missing parent directories
// first.
func WriteFile(filename string, b []byte) error {
	dir := filepath.Dir(filename)
	if !IsDir(dir) {
		log.Debugf("creating directory: %s", dir)
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	return os.WriteFile(filename, b, 0644)
}

// ListFiles returns the paths of all regular files rooted at dir, relative to
// dir and using forward slashes. The result is in lexical order. A missing dir
// yields an empty result.
func ListFiles(dir string) ([]string, error) {
	if !IsDir(dir) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
