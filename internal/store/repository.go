package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"chatsync/internal/types"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

// NewChatDraftKey is the draft key of the unsaved chat.
const NewChatDraftKey = "_new"

// Repository is the local cache that survives restarts. Server state stays
// authoritative; the cache only seeds the UI until the first fetch lands.
type Repository interface {
	AppState() AppStateStore
	Drafts() DraftStore
	Sessions() SessionCacheStore
	Backend() string
	Close() error
}

type AppStateStore interface {
	Load(ctx context.Context) (*types.AppState, error)
	Save(ctx context.Context, state *types.AppState) error
}

// DraftStore keeps unsent composer input per session.
type DraftStore interface {
	Get(ctx context.Context, sessionID string) (types.Draft, bool, error)
	Put(ctx context.Context, sessionID string, draft types.Draft) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionCacheStore keeps the last fetched session list.
type SessionCacheStore interface {
	Load(ctx context.Context) ([]*types.SessionSummary, time.Time, error)
	Save(ctx context.Context, sessions []*types.SessionSummary) error
}

type RepositoryPaths struct {
	DBPath   string
	FilesDir string
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DBPath) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DBPath)
	case RepositoryBackendFile:
		if strings.TrimSpace(paths.FilesDir) == "" {
			return nil, errors.New("files dir is required for file repository")
		}
		return NewFileRepository(paths.FilesDir), nil
	default:
		return nil, errors.New("unsupported repository backend: " + backend)
	}
}

func draftKey(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return NewChatDraftKey
	}
	return sessionID
}

func cleanSummaries(in []*types.SessionSummary) []*types.SessionSummary {
	out := make([]*types.SessionSummary, 0, len(in))
	for _, session := range in {
		if session == nil || strings.TrimSpace(session.ID) == "" {
			continue
		}
		out = append(out, types.CloneSummary(session))
	}
	return out
}
