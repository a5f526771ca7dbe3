package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"chatsync/internal/logging"
)

// TokenSource supplies the bearer token issued by the auth flow.
type TokenSource interface {
	Token() (string, error)
}

type StaticToken string

func (t StaticToken) Token() (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// FileTokenSource reads the token from a file the auth flow writes. The
// file is read lazily and cached until Invalidate or a watched change.
type FileTokenSource struct {
	path   string
	mu     sync.Mutex
	token  string
	loaded bool
}

func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{path: strings.TrimSpace(path)}
}

func (s *FileTokenSource) Path() string {
	return s.path
}

func (s *FileTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.token, nil
	}
	token, err := readTokenFile(s.path)
	if err != nil {
		return "", err
	}
	s.token = token
	s.loaded = true
	return token, nil
}

func (s *FileTokenSource) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.token = ""
	s.mu.Unlock()
}

// Watch invalidates the cached token whenever the token file changes. It
// watches the parent directory so atomic replace-by-rename is observed.
// Blocks until ctx is done.
func (s *FileTokenSource) Watch(ctx context.Context, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	if s.path == "" {
		return errors.New("token path is required")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				s.Invalidate()
				logger.Info("token file changed", logging.F("op", event.Op.String()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("token watcher error", logging.Err(err))
		}
	}
}

func readTokenFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
