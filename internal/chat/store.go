package chat

import (
	"fmt"
	"strings"
	"time"

	"chatsync/internal/types"
)

// SessionContext identifies the view a request was issued for. Seq changes
// on every user navigation; SessionID is empty for an unsaved chat.
type SessionContext struct {
	Seq       uint64
	SessionID string
}

func (c SessionContext) String() string {
	id := c.SessionID
	if id == "" {
		id = "new"
	}
	return fmt.Sprintf("%d/%s", c.Seq, id)
}

// Store holds the current session identity, the visible message list
// (confirmed messages plus pending overlay entries in insertion order) and
// the session summaries. Only the engine mutates it.
type Store struct {
	ctx      SessionContext
	messages []types.Message
	loaded   bool
	sessions []*types.SessionSummary
	revision uint64
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Context() SessionContext {
	return s.ctx
}

func (s *Store) SessionID() string {
	return s.ctx.SessionID
}

// Revision increases on every change to the visible message list.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Loaded reports whether the message list reflects a server snapshot of the
// current session.
func (s *Store) Loaded() bool {
	return s.loaded
}

// IsActive reports whether results issued under ctx may still be applied.
// A creation request issued before the id was known stays active after the
// id is assigned.
func (s *Store) IsActive(ctx SessionContext) bool {
	if ctx.Seq != s.ctx.Seq {
		return false
	}
	return ctx.SessionID == "" || ctx.SessionID == s.ctx.SessionID
}

func (s *Store) Messages() []types.Message {
	return types.CloneMessages(s.messages)
}

func (s *Store) Sessions() []*types.SessionSummary {
	return types.CloneSummaries(s.sessions)
}

func (s *Store) Session(id string) *types.SessionSummary {
	for _, session := range s.sessions {
		if session.ID == id {
			return types.CloneSummary(session)
		}
	}
	return nil
}

// enter starts a new context for sessionID and clears the visible list.
func (s *Store) enter(sessionID string) SessionContext {
	s.ctx = SessionContext{Seq: s.ctx.Seq + 1, SessionID: strings.TrimSpace(sessionID)}
	s.messages = nil
	s.loaded = false
	s.revision++
	return s.ctx
}

// assign records the server id for the unsaved chat of the current context.
// The local list is the session's content from then on.
func (s *Store) assign(sessionID string) SessionContext {
	s.ctx.SessionID = sessionID
	s.loaded = true
	return s.ctx
}

func (s *Store) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// confirmed reports whether id is a server message already in the list.
func (s *Store) confirmed(id string) bool {
	idx := s.indexOf(id)
	return idx >= 0 && s.messages[idx].Status == types.MessageConfirmed
}

func (s *Store) has(id string) bool {
	return s.indexOf(id) >= 0
}

func (s *Store) appendMessage(msg types.Message) {
	s.messages = append(s.messages, msg)
	s.revision++
}

func (s *Store) removeAt(idx int) {
	s.messages = append(s.messages[:idx], s.messages[idx+1:]...)
	s.revision++
}

func (s *Store) replaceAt(idx int, msg types.Message) {
	s.messages[idx] = msg
	s.revision++
}

func (s *Store) insertAfter(idx int, msgs []types.Message) {
	if len(msgs) == 0 {
		return
	}
	tail := append([]types.Message(nil), s.messages[idx+1:]...)
	s.messages = append(append(s.messages[:idx+1], msgs...), tail...)
	s.revision++
}

// applySnapshot replaces the confirmed part of the list with server truth.
// Local entries missing from the snapshot survive at the tail, in their
// original order, when keep accepts them.
func (s *Store) applySnapshot(messages []types.Message, keep func(types.Message) bool) {
	next := make([]types.Message, 0, len(messages)+2)
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		if msg.ID == "" || types.IsTempID(msg.ID) {
			continue
		}
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		msg = msg.Clone()
		msg.Status = types.MessageConfirmed
		next = append(next, msg)
	}
	for _, msg := range s.messages {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		if keep != nil && keep(msg) {
			next = append(next, msg)
		}
	}
	s.messages = next
	s.loaded = true
	s.revision++
}

func (s *Store) setSessions(sessions []*types.SessionSummary) {
	s.sessions = types.CloneSummaries(sessions)
}

// upsertSession records local knowledge about a session until the next list
// fetch replaces it.
func (s *Store) upsertSession(summary types.SessionSummary) {
	for _, session := range s.sessions {
		if session.ID != summary.ID {
			continue
		}
		if summary.Title != "" {
			session.Title = summary.Title
		}
		if summary.LastActivityAt.After(session.LastActivityAt) {
			session.LastActivityAt = summary.LastActivityAt
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = summary.CreatedAt
		}
		return
	}
	s.sessions = append(s.sessions, types.CloneSummary(&summary))
}

func (s *Store) touchSession(id string, at time.Time) {
	if id == "" {
		return
	}
	s.upsertSession(types.SessionSummary{ID: id, CreatedAt: at, LastActivityAt: at})
}

func (s *Store) removeSession(id string) bool {
	for i, session := range s.sessions {
		if session.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true
		}
	}
	return false
}
