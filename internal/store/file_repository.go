package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chatsync/internal/types"
)

const (
	stateFileName    = "state.json"
	draftsFileName   = "drafts.json"
	sessionsFileName = "sessions.json"
)

type fileRepository struct {
	appState AppStateStore
	drafts   DraftStore
	sessions SessionCacheStore
}

// NewFileRepository stores the cache as JSON files under dir. It is the
// fallback when the bbolt database is locked by another instance.
func NewFileRepository(dir string) Repository {
	return &fileRepository{
		appState: NewFileAppStateStore(filepath.Join(dir, stateFileName)),
		drafts:   &fileDraftStore{path: filepath.Join(dir, draftsFileName)},
		sessions: &fileSessionCacheStore{path: filepath.Join(dir, sessionsFileName)},
	}
}

func (r *fileRepository) AppState() AppStateStore {
	return r.appState
}

func (r *fileRepository) Drafts() DraftStore {
	return r.drafts
}

func (r *fileRepository) Sessions() SessionCacheStore {
	return r.sessions
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

type FileAppStateStore struct {
	path string
	mu   sync.Mutex
}

func NewFileAppStateStore(path string) *FileAppStateStore {
	return &FileAppStateStore{path: path}
}

func (s *FileAppStateStore) Load(ctx context.Context) (*types.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &types.AppState{}
	if err := readJSON(s.path, state); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, err
	}
	return state, nil
}

func (s *FileAppStateStore) Save(ctx context.Context, state *types.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		return errors.New("state is required")
	}
	return writeJSONAtomic(s.path, state)
}

type fileDraftStore struct {
	path string
	mu   sync.Mutex
}

func (s *fileDraftStore) load() (map[string]types.Draft, error) {
	drafts := map[string]types.Draft{}
	if err := readJSON(s.path, &drafts); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return drafts, nil
}

func (s *fileDraftStore) Get(ctx context.Context, sessionID string) (types.Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts, err := s.load()
	if err != nil {
		return types.Draft{}, false, err
	}
	draft, ok := drafts[draftKey(sessionID)]
	return draft, ok, nil
}

func (s *fileDraftStore) Put(ctx context.Context, sessionID string, draft types.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts, err := s.load()
	if err != nil {
		return err
	}
	if draft.Empty() {
		delete(drafts, draftKey(sessionID))
	} else {
		drafts[draftKey(sessionID)] = draft
	}
	return writeJSONAtomic(s.path, drafts)
}

func (s *fileDraftStore) Delete(ctx context.Context, sessionID string) error {
	return s.Put(ctx, sessionID, types.Draft{})
}

type sessionCacheFile struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Sessions  []*types.SessionSummary `json:"sessions"`
}

type fileSessionCacheStore struct {
	path string
	mu   sync.Mutex
}

func (s *fileSessionCacheStore) Load(ctx context.Context) ([]*types.SessionSummary, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file sessionCacheFile
	if err := readJSON(s.path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.SessionSummary{}, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}
	sessions := cleanSummaries(file.Sessions)
	sortSummaries(sessions)
	return sessions, file.FetchedAt, nil
}

func (s *fileSessionCacheStore) Save(ctx context.Context, sessions []*types.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSONAtomic(s.path, sessionCacheFile{
		FetchedAt: time.Now().UTC(),
		Sessions:  cleanSummaries(sessions),
	})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return os.ErrNotExist
	}
	return json.Unmarshal(data, v)
}

func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	file, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), path)
}
