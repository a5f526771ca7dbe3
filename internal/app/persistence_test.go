package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/chat"
	"chatsync/internal/store"
	"chatsync/internal/types"
)

func TestDraftsFollowTheirSession(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	m, api := newTestModel(t, withRepository(repo))
	api.svc.Seed(seedSession("a", "Alpha", testNow), seedSession("b", "Beta", testNow.Add(-time.Minute)))

	drain(t, m, m.openSession("a"))
	m.composer.SetValue("half typed")
	drain(t, m, m.openSession("b"))
	if m.composer.Value() != "" {
		t.Fatalf("expected empty composer on another session, got %q", m.composer.Value())
	}

	drain(t, m, m.openSession("a"))
	if m.composer.Value() != "half typed" {
		t.Fatalf("expected draft restored, got %q", m.composer.Value())
	}
}

func TestAppStateReopensLastSession(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	if err := repo.AppState().Save(t.Context(), &types.AppState{LastSessionID: "a", SidebarFilter: "saved"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, api := newTestModel(t, withRepository(repo))
	api.svc.Seed(seedSession("a", "Alpha", testNow, types.Message{ID: "a1", Sender: types.SenderUser, Content: "hi", Timestamp: testNow}))

	drain(t, m, m.loadAppStateCmd())

	if m.Route() != "/chat/a" {
		t.Fatalf("expected last session reopened, got %q", m.Route())
	}
	if m.filter != chat.FilterSaved {
		t.Fatalf("expected saved filter restored, got %q", m.filter)
	}
	if got := messageContents(m.engine.Store().Messages()); !equalStrings(got, []string{"hi"}) {
		t.Fatalf("unexpected transcript %v", got)
	}
}

func TestAppStateDoesNotOverrideUserNavigation(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	if err := repo.AppState().Save(t.Context(), &types.AppState{LastSessionID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, api := newTestModel(t, withRepository(repo))
	api.svc.Seed(seedSession("a", "Alpha", testNow), seedSession("b", "Beta", testNow))

	drain(t, m, m.openSession("b"))
	drain(t, m, m.loadAppStateCmd())

	if m.Route() != "/chat/b" {
		t.Fatalf("expected user choice kept, got %q", m.Route())
	}
}

func TestSessionCacheSeedsSidebarAndIsRefreshed(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	if err := repo.Sessions().Save(t.Context(), []*types.SessionSummary{{ID: "cached", Title: "From cache", LastActivityAt: testNow}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, api := newTestModel(t, withRepository(repo))

	drain(t, m, m.loadSessionCacheCmd())
	if m.engine.Store().Session("cached") == nil {
		t.Fatalf("expected cached session in sidebar")
	}

	api.svc.Seed(seedSession("live", "Live", testNow))
	drain(t, m, m.applyEffects(m.engine.List()))
	cached, _, err := repo.Sessions().Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cached) != 1 || cached[0].ID != "live" {
		t.Fatalf("expected cache replaced by fetched list, got %#v", cached)
	}
}

func TestPersistWritesDraftAndState(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	m, _ := newTestModel(t, withRepository(repo))
	m.composer.SetValue("unsent")
	m.rememberCompose("earlier")

	if err := m.Persist(t.Context()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	draft, ok, err := repo.Drafts().Get(t.Context(), "")
	if err != nil || !ok || draft.Text != "unsent" {
		t.Fatalf("unexpected draft %#v ok=%v err=%v", draft, ok, err)
	}
	state, err := repo.AppState().Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state == nil || len(state.ComposeHistory) != 1 || state.ComposeHistory[0] != "earlier" {
		t.Fatalf("unexpected state %#v", state)
	}
}

func TestCreatedChatKeepsComposerAndDropsUnsavedDraft(t *testing.T) {
	repo := store.NewFileRepository(t.TempDir())
	if err := repo.Drafts().Put(t.Context(), "", types.Draft{Text: "hello"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	m, api := newTestModel(t, withRepository(repo))
	api.svc.Seed(seedSession("a", "Alpha", testNow.Add(-time.Hour)))

	m.composer.SetValue("hello")
	drain(t, m, feed(m, tea.KeyMsg{Type: tea.KeyEnter}))
	if m.Route() != "/chat/srv-1" {
		t.Fatalf("expected route of created session, got %q", m.Route())
	}
	if _, ok, err := repo.Drafts().Get(t.Context(), ""); err != nil || ok {
		t.Fatalf("expected unsaved chat draft removed, got ok=%v err=%v", ok, err)
	}

	m.composer.SetValue("follow up")
	drain(t, m, m.openSession("a"))
	draft, ok, err := repo.Drafts().Get(t.Context(), "srv-1")
	if err != nil || !ok {
		t.Fatalf("expected draft stored for created session, got ok=%v err=%v", ok, err)
	}
	if draft.Text != "follow up" {
		t.Fatalf("unexpected draft %#v", draft)
	}
	if _, ok, _ := repo.Drafts().Get(t.Context(), ""); ok {
		t.Fatalf("draft leaked to the unsaved chat")
	}
}
