package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"chatsync/internal/types"
)

var (
	bucketAppState     = []byte("app_state")
	bucketDrafts       = []byte("drafts")
	bucketSessions     = []byte("sessions")
	bucketSessionsMeta = []byte("sessions_meta")
	keyAppState        = []byte("state")
	keyFetchedAt       = []byte("fetched_at")
)

type bboltRepository struct {
	db       *bolt.DB
	appState AppStateStore
	drafts   DraftStore
	sessions SessionCacheStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:       db,
		appState: &bboltAppStateStore{db: db},
		drafts:   &bboltDraftStore{db: db},
		sessions: &bboltSessionCacheStore{db: db},
	}, nil
}

func (r *bboltRepository) AppState() AppStateStore {
	return r.appState
}

func (r *bboltRepository) Drafts() DraftStore {
	return r.drafts
}

func (r *bboltRepository) Sessions() SessionCacheStore {
	return r.sessions
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAppState, bucketDrafts, bucketSessions, bucketSessionsMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

type bboltAppStateStore struct {
	db *bolt.DB
}

func (s *bboltAppStateStore) Load(ctx context.Context) (*types.AppState, error) {
	state := &types.AppState{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAppState)
		if b == nil {
			return nil
		}
		raw := b.Get(keyAppState)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *bboltAppStateStore) Save(ctx context.Context, state *types.AppState) error {
	if state == nil {
		return errors.New("state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAppState)
		if b == nil {
			return errors.New("app state bucket missing")
		}
		return b.Put(keyAppState, raw)
	})
}

type bboltDraftStore struct {
	db *bolt.DB
}

func (s *bboltDraftStore) Get(ctx context.Context, sessionID string) (types.Draft, bool, error) {
	var (
		draft types.Draft
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDrafts)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(draftKey(sessionID)))
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, &draft); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return types.Draft{}, false, err
	}
	return draft, ok, nil
}

// Put stores draft; an empty draft deletes the entry.
func (s *bboltDraftStore) Put(ctx context.Context, sessionID string, draft types.Draft) error {
	if draft.Empty() {
		return s.Delete(ctx, sessionID)
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDrafts)
		if b == nil {
			return errors.New("drafts bucket missing")
		}
		return b.Put([]byte(draftKey(sessionID)), raw)
	})
}

func (s *bboltDraftStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDrafts)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(draftKey(sessionID)))
	})
}

type bboltSessionCacheStore struct {
	db *bolt.DB
}

func (s *bboltSessionCacheStore) Load(ctx context.Context) ([]*types.SessionSummary, time.Time, error) {
	out := make([]*types.SessionSummary, 0)
	var fetchedAt time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		if meta := tx.Bucket(bucketSessionsMeta); meta != nil {
			if raw := meta.Get(keyFetchedAt); len(raw) > 0 {
				if err := fetchedAt.UnmarshalText(raw); err != nil {
					return err
				}
			}
		}
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var session types.SessionSummary
			if err := json.Unmarshal(v, &session); err != nil {
				return err
			}
			out = append(out, &session)
			return nil
		})
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	sortSummaries(out)
	return out, fetchedAt, nil
}

// Save replaces the cached list so deleted sessions do not linger.
func (s *bboltSessionCacheStore) Save(ctx context.Context, sessions []*types.SessionSummary) error {
	sessions = cleanSummaries(sessions)
	encoded := make(map[string][]byte, len(sessions))
	for _, session := range sessions {
		raw, err := json.Marshal(session)
		if err != nil {
			return err
		}
		encoded[session.ID] = raw
	}
	stamp, err := time.Now().UTC().MarshalText()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketSessions); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketSessions)
		if err != nil {
			return err
		}
		for id, raw := range encoded {
			if err := b.Put([]byte(id), raw); err != nil {
				return err
			}
		}
		meta, err := tx.CreateBucketIfNotExists(bucketSessionsMeta)
		if err != nil {
			return err
		}
		return meta.Put(keyFetchedAt, stamp)
	})
}

func sortSummaries(sessions []*types.SessionSummary) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i].ActivityAt(), sessions[j].ActivityAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
