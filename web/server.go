package web

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/pocgg/arthivescrape/fileutil"
	log "github.com/sirupsen/logrus"
)

// Prefix is the url path under which downloaded assets are exposed. It is
// also the first path segment of every asset url, so the on-disk layout under
// the destination directory matches the remote host's.
const Prefix = "/res/"

// Server exposes the destination directory read-only over http: assets under
// Prefix, and a gallery of everything downloaded so far at "/".
type Server struct {
	dir string
	srv *http.Server
}

func NewServer(addr string, dir string) *Server {
	s := &Server{dir: dir}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Prefix, http.FileServer(http.Dir(s.dir)))
	mux.HandleFunc("/", s.serveGallery)
	return mux
}

func (s *Server) serveGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	files, err := fileutil.ListFiles(filepath.Join(s.dir, strings.Trim(Prefix, "/")))
	if err != nil {
		log.WithError(err).Errorf("failed to list downloaded files: dir=%s", s.dir)
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, Prefix+f)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = WriteGallery(w, "downloaded images", urls)
	if err != nil {
		log.WithError(err).Warn("failed to write gallery")
	}
}

// ListenAndServe serves until ctx is done, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		log.Infof("serving %s at http://%s%s", s.dir, s.srv.Addr, Prefix)
		errChan <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}

	err = <-errChan
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
