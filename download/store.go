package download

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/flytam/filenamify"
	"github.com/pocgg/arthivescrape/fileutil"
	log "github.com/sirupsen/logrus"
)

// Store maps asset urls to files under a destination directory.
type Store struct {
	destDir string // constant
}

// Desc decribes a media file.
type Desc struct {
	Filename string // Relative to destination directory
	IsLocal  bool   // True if file already downloaded
}

func NewStore(destDir string) *Store {
	return &Store{
		destDir: destDir,
	}
}

// EvaluateURL returns a descriptor for the media file that the given url
// points to. It does not download anything. The `IsLocal` field in the
// descriptor is true if the file has already been downloaded; anything other
// than a regular file at the destination path does not count.
func (s *Store) EvaluateURL(u string) (*Desc, error) {
	filename, err := URLToFilename(u)
	if err != nil {
		return nil, err
	}

	if fileutil.FileExists(s.FullPath(filename)) {
		log.Debugf("skipping %s: file already exists: %s", u, filename)
		return &Desc{
			Filename: filename,
			IsLocal:  true,
		}, nil
	}

	return &Desc{
		Filename: filename,
		IsLocal:  false,
	}, nil
}

// FullPath converts a path relative to the destination directory into a
// filesystem path.
func (s *Store) FullPath(relPath string) string {
	return filepath.Join(s.destDir, filepath.FromSlash(relPath))
}

// SaveFile writes b to relPath, creating parent directories as needed.
func (s *Store) SaveFile(relPath string, b []byte) error {
	destPath := s.FullPath(relPath)
	log.Debugf("saving %s", destPath)
	return fileutil.WriteFile(destPath, b)
}

// URLToFilename returns the local path, relative to the destination
// directory, that the given url is saved to: the url's decoded path without
// its leading separator. Every path segment is sanitized so that no segment
// can climb out of the destination directory.
func URLToFilename(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}

	p := strings.TrimPrefix(parsed.Path, "/")
	if p == "" {
		return "", fmt.Errorf("url has no path: %s", u)
	}

	segs := strings.Split(p, "/")
	for i, seg := range segs {
		if seg == "" {
			continue
		}
		safe, err := filenamify.Filenamify(seg, filenamify.Options{})
		if err != nil {
			return "", err
		}
		segs[i] = safe
	}

	return path.Join(segs...), nil
}
