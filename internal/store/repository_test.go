package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chatsync/internal/types"
)

func openTestRepositories(t *testing.T) map[string]Repository {
	t.Helper()
	dir := t.TempDir()
	bbolt, err := OpenRepository(RepositoryPaths{DBPath: filepath.Join(dir, "cache.db")}, RepositoryBackendBbolt)
	if err != nil {
		t.Fatalf("open bbolt repository: %v", err)
	}
	t.Cleanup(func() { _ = bbolt.Close() })
	file, err := OpenRepository(RepositoryPaths{FilesDir: filepath.Join(dir, "files")}, RepositoryBackendFile)
	if err != nil {
		t.Fatalf("open file repository: %v", err)
	}
	return map[string]Repository{"bbolt": bbolt, "file": file}
}

func TestAppStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range openTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			state, err := repo.AppState().Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if state.LastSessionID != "" {
				t.Fatalf("expected empty state, got %#v", state)
			}
			state.LastSessionID = "s1"
			state.SidebarFilter = "pinned"
			state.SidebarHidden = true
			state.ComposeHistory = []string{"hello"}
			if err := repo.AppState().Save(ctx, state); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := repo.AppState().Load(ctx)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if loaded.LastSessionID != "s1" || loaded.SidebarFilter != "pinned" || !loaded.SidebarHidden || len(loaded.ComposeHistory) != 1 {
				t.Fatalf("unexpected state: %#v", loaded)
			}
			if err := repo.AppState().Save(ctx, nil); err == nil {
				t.Fatalf("expected error saving nil state")
			}
		})
	}
}

func TestDraftsPerSession(t *testing.T) {
	ctx := context.Background()
	for name, repo := range openTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			drafts := repo.Drafts()
			if err := drafts.Put(ctx, "", types.Draft{Text: "new chat text"}); err != nil {
				t.Fatalf("put new chat draft: %v", err)
			}
			if err := drafts.Put(ctx, "s1", types.Draft{Text: "reply", Attachments: []string{"/tmp/a.png"}}); err != nil {
				t.Fatalf("put draft: %v", err)
			}

			draft, ok, err := drafts.Get(ctx, "  ")
			if err != nil || !ok || draft.Text != "new chat text" {
				t.Fatalf("unexpected new chat draft %#v ok=%v err=%v", draft, ok, err)
			}
			draft, ok, err = drafts.Get(ctx, "s1")
			if err != nil || !ok || draft.Text != "reply" || len(draft.Attachments) != 1 {
				t.Fatalf("unexpected draft %#v ok=%v err=%v", draft, ok, err)
			}

			if err := drafts.Put(ctx, "s1", types.Draft{Text: "   "}); err != nil {
				t.Fatalf("put empty draft: %v", err)
			}
			if _, ok, _ := drafts.Get(ctx, "s1"); ok {
				t.Fatalf("expected empty draft to delete the entry")
			}
			if err := drafts.Delete(ctx, ""); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := drafts.Get(ctx, ""); ok {
				t.Fatalf("expected draft deleted")
			}
		})
	}
}

func TestSessionCacheReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	for name, repo := range openTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			cache := repo.Sessions()
			sessions, fetchedAt, err := cache.Load(ctx)
			if err != nil || len(sessions) != 0 || !fetchedAt.IsZero() {
				t.Fatalf("expected empty cache, got %#v %v %v", sessions, fetchedAt, err)
			}

			first := []*types.SessionSummary{
				{ID: "old", Title: "Old", LastActivityAt: now.Add(-time.Hour)},
				{ID: "new", Title: "New", LastActivityAt: now, Pinned: true},
				nil,
				{ID: " "},
			}
			if err := cache.Save(ctx, first); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := cache.Save(ctx, first[1:2]); err != nil {
				t.Fatalf("save again: %v", err)
			}
			sessions, fetchedAt, err = cache.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(sessions) != 1 || sessions[0].ID != "new" || !sessions[0].Pinned {
				t.Fatalf("unexpected sessions %#v", sessions)
			}
			if fetchedAt.IsZero() {
				t.Fatalf("expected fetched-at stamp")
			}
		})
	}
}

func TestSessionCacheSortsByActivity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	for name, repo := range openTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.Sessions().Save(ctx, []*types.SessionSummary{
				{ID: "b", LastActivityAt: now.Add(-time.Hour)},
				{ID: "a", LastActivityAt: now},
				{ID: "c", CreatedAt: now.Add(-2 * time.Hour)},
			})
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			sessions, _, err := repo.Sessions().Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			var ids []string
			for _, s := range sessions {
				ids = append(ids, s.ID)
			}
			if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
				t.Fatalf("unexpected order %v", ids)
			}
		})
	}
}

func TestOpenRepositoryValidatesInput(t *testing.T) {
	if _, err := OpenRepository(RepositoryPaths{}, RepositoryBackendBbolt); err == nil {
		t.Fatalf("expected error for missing db path")
	}
	if _, err := OpenRepository(RepositoryPaths{}, RepositoryBackendFile); err == nil {
		t.Fatalf("expected error for missing files dir")
	}
	if _, err := OpenRepository(RepositoryPaths{DBPath: "x"}, "sqlite"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
