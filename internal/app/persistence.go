package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/chat"
	"chatsync/internal/logging"
	"chatsync/internal/types"
)

const (
	persistTimeout    = 2 * time.Second
	maxComposeHistory = 50
)

func (m *Model) loadAppStateCmd() tea.Cmd {
	if m.repo == nil {
		return nil
	}
	states := m.repo.AppState()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		state, err := states.Load(ctx)
		return appStateLoadedMsg{state: state, err: err}
	}
}

func (m *Model) loadSessionCacheCmd() tea.Cmd {
	if m.repo == nil {
		return nil
	}
	cache := m.repo.Sessions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		sessions, fetchedAt, err := cache.Load(ctx)
		return sessionCacheMsg{sessions: sessions, fetchedAt: fetchedAt, err: err}
	}
}

func (m *Model) saveSessionCacheCmd(sessions []*types.SessionSummary) tea.Cmd {
	if m.repo == nil {
		return nil
	}
	cache := m.repo.Sessions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := cache.Save(ctx, sessions); err != nil {
			return persistErrMsg{what: "session cache", err: err}
		}
		return nil
	}
}

func (m *Model) loadDraftCmd(sessionID string) tea.Cmd {
	if m.repo == nil {
		return nil
	}
	drafts := m.repo.Drafts()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		draft, ok, err := drafts.Get(ctx, sessionID)
		return draftLoadedMsg{sessionID: sessionID, draft: draft, ok: ok, err: err}
	}
}

func (m *Model) putDraftCmd(sessionID string, draft types.Draft) tea.Cmd {
	if m.repo == nil {
		return nil
	}
	drafts := m.repo.Drafts()
	draft = cloneDraft(draft)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := drafts.Put(ctx, sessionID, draft); err != nil {
			return persistErrMsg{what: "draft", err: err}
		}
		return nil
	}
}

func (m *Model) deleteDraftCmd(sessionID string) tea.Cmd {
	if m.repo == nil {
		return nil
	}
	drafts := m.repo.Drafts()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := drafts.Delete(ctx, sessionID); err != nil {
			return persistErrMsg{what: "draft", err: err}
		}
		return nil
	}
}

func (m *Model) saveAppStateCmd() tea.Cmd {
	if m.repo == nil {
		return nil
	}
	states := m.repo.AppState()
	state := m.snapshotAppState()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := states.Save(ctx, &state); err != nil {
			return persistErrMsg{what: "app state", err: err}
		}
		return nil
	}
}

func (m *Model) snapshotAppState() types.AppState {
	return types.AppState{
		LastSessionID:  m.engine.Store().SessionID(),
		SidebarFilter:  string(m.filter),
		SidebarHidden:  m.sidebarHidden,
		ComposeHistory: append([]string(nil), m.composeHistory...),
	}
}

// applyAppState restores UI state from the last run. The last open session
// is reopened only if the user has not navigated yet.
func (m *Model) applyAppState(msg appStateLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("app state load failed", logging.Err(msg.err))
		return nil
	}
	if msg.state == nil {
		return nil
	}
	state := msg.state
	m.filter = chat.ParseFilter(state.SidebarFilter)
	m.sidebarHidden = state.SidebarHidden
	if len(m.composeHistory) == 0 {
		m.composeHistory = append([]string(nil), state.ComposeHistory...)
	}
	last := strings.TrimSpace(state.LastSessionID)
	if last == "" || m.navigated || m.engine.Store().SessionID() != "" || m.engine.Creating() {
		return nil
	}
	m.logger.Debug("reopening last session", logging.F("session_id", last))
	return m.applyEffects(m.engine.OpenSession(last))
}

func (m *Model) applySessionCache(msg sessionCacheMsg) {
	if msg.err != nil {
		m.logger.Warn("session cache load failed", logging.Err(msg.err))
		return
	}
	if len(msg.sessions) == 0 {
		return
	}
	if m.engine.SeedSessions(msg.sessions) {
		m.logger.Debug("session list seeded from cache",
			logging.F("sessions", len(msg.sessions)),
			logging.F("fetched_at", msg.fetchedAt.Format(time.RFC3339)),
		)
	}
}

// applyDraft restores a stored draft if the composer is still untouched
// and the draft belongs to the open session.
func (m *Model) applyDraft(msg draftLoadedMsg) {
	if msg.err != nil {
		m.logger.Warn("draft load failed", logging.F("session_id", msg.sessionID), logging.Err(msg.err))
		return
	}
	if !msg.ok || msg.sessionID != m.engine.Store().SessionID() {
		return
	}
	if strings.TrimSpace(m.composer.Value()) != "" || len(m.attachments) > 0 {
		return
	}
	m.composer.SetValue(msg.draft.Text)
	m.attachments = append([]string(nil), msg.draft.Attachments...)
}

func (m *Model) currentDraft() types.Draft {
	draft := types.Draft{Text: m.composer.Value()}
	if len(m.attachments) > 0 {
		draft.Attachments = append([]string(nil), m.attachments...)
	}
	return draft
}

func (m *Model) rememberCompose(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if n := len(m.composeHistory); n > 0 && m.composeHistory[n-1] == text {
		return
	}
	m.composeHistory = append(m.composeHistory, text)
	if over := len(m.composeHistory) - maxComposeHistory; over > 0 {
		m.composeHistory = m.composeHistory[over:]
	}
}

// Persist writes the open draft and UI state synchronously. It is called
// once the program has exited.
func (m *Model) Persist(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	if err := m.repo.Drafts().Put(ctx, m.engine.Store().SessionID(), m.currentDraft()); err != nil {
		return err
	}
	state := m.snapshotAppState()
	return m.repo.AppState().Save(ctx, &state)
}
