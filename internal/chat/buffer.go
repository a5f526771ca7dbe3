package chat

import (
	"strings"
	"time"

	"chatsync/internal/types"
)

// pendingEntry is the bookkeeping for one optimistic message.
type pendingEntry struct {
	tempID   string
	ctx      SessionContext
	draft    types.Draft
	issuedAt time.Time
	held     bool
}

// terminalRecord remembers how a temp id ended, scoped to the context that
// issued it.
type terminalRecord struct {
	status types.MessageStatus
	ctx    SessionContext
}

// Buffer overlays optimistic messages on the store's visible list. Each temp
// id moves from pending to exactly one terminal state; the first terminal
// transition wins and later ones are no-ops.
type Buffer struct {
	store    *Store
	ids      IDGenerator
	now      func() time.Time
	pending  map[string]*pendingEntry
	order    []string
	terminal map[string]terminalRecord
}

func NewBuffer(store *Store, ids IDGenerator, now func() time.Time) *Buffer {
	if ids == nil {
		ids = UUIDTempIDs()
	}
	if now == nil {
		now = time.Now
	}
	return &Buffer{
		store:    store,
		ids:      ids,
		now:      now,
		pending:  map[string]*pendingEntry{},
		terminal: map[string]terminalRecord{},
	}
}

// AppendOptimistic inserts a pending user message at the end of the visible
// list and returns its temp id.
func (b *Buffer) AppendOptimistic(content string, attachments []string) (string, error) {
	tempID := b.ids.NewTempID()
	if !types.IsTempID(tempID) {
		tempID = types.TempIDPrefix + tempID
	}
	if _, ok := b.pending[tempID]; ok {
		return "", ErrDuplicateTempID
	}
	if _, ok := b.terminal[tempID]; ok {
		return "", ErrDuplicateTempID
	}
	now := b.now()
	b.store.appendMessage(types.Message{
		ID:          tempID,
		Sender:      types.SenderUser,
		Content:     content,
		Attachments: append([]string(nil), attachments...),
		Timestamp:   now,
		Status:      types.MessagePending,
	})
	b.pending[tempID] = &pendingEntry{
		tempID:   tempID,
		ctx:      b.store.Context(),
		draft:    types.Draft{Text: content, Attachments: append([]string(nil), attachments...)},
		issuedAt: now,
	}
	b.order = append(b.order, tempID)
	return tempID, nil
}

// Confirm replaces the pending entry with the canonical message and inserts
// followups (the assistant reply) right after it. Ids already in the list
// are not duplicated. Returns false when there was nothing to confirm.
func (b *Buffer) Confirm(tempID string, canonical types.Message, followups ...types.Message) bool {
	if _, done := b.terminal[tempID]; done {
		return false
	}
	if _, ok := b.pending[tempID]; !ok {
		return false
	}
	b.finish(tempID, types.MessageConfirmed)

	idx := b.store.indexOf(tempID)
	if idx < 0 || b.store.messages[idx].Status != types.MessagePending {
		return false
	}
	canonical = canonical.Clone()
	canonical.Status = types.MessageConfirmed
	if existing := b.store.indexOf(canonical.ID); existing >= 0 {
		b.store.removeAt(idx)
		idx = b.store.indexOf(canonical.ID)
	} else {
		b.store.replaceAt(idx, canonical)
	}

	extra := make([]types.Message, 0, len(followups))
	seen := map[string]struct{}{}
	for _, msg := range followups {
		if msg.ID == "" || b.store.has(msg.ID) {
			continue
		}
		if _, dup := seen[msg.ID]; dup {
			continue
		}
		seen[msg.ID] = struct{}{}
		msg = msg.Clone()
		msg.Status = types.MessageConfirmed
		extra = append(extra, msg)
	}
	b.store.insertAfter(idx, extra)
	return true
}

// Rollback removes the pending entry. Returns false when the id was already
// terminal or never issued.
func (b *Buffer) Rollback(tempID string) bool {
	if _, done := b.terminal[tempID]; done {
		return false
	}
	if _, ok := b.pending[tempID]; !ok {
		return false
	}
	b.finish(tempID, types.MessageFailed)
	if idx := b.store.indexOf(tempID); idx >= 0 && b.store.messages[idx].Status == types.MessagePending {
		b.store.removeAt(idx)
	}
	return true
}

// Terminal reports the recorded terminal state of tempID.
func (b *Buffer) Terminal(tempID string) (types.MessageStatus, bool) {
	rec, ok := b.terminal[tempID]
	return rec.status, ok
}

func (b *Buffer) IsPending(tempID string) bool {
	_, ok := b.pending[tempID]
	return ok
}

// PendingIDs returns outstanding temp ids in submission order.
func (b *Buffer) PendingIDs() []string {
	return append([]string(nil), b.order...)
}

func (b *Buffer) entry(tempID string) *pendingEntry {
	return b.pending[tempID]
}

// forget drops bookkeeping for entries and terminal records of contexts the
// user left. Their responses are discarded as stale, so no terminal state is
// recorded for abandoned entries.
func (b *Buffer) forget(active func(SessionContext) bool) []string {
	for id, rec := range b.terminal {
		if !active(rec.ctx) {
			delete(b.terminal, id)
		}
	}
	var dropped []string
	order := b.order[:0]
	for _, id := range b.order {
		entry := b.pending[id]
		if entry != nil && active(entry.ctx) {
			order = append(order, id)
			continue
		}
		delete(b.pending, id)
		dropped = append(dropped, id)
	}
	b.order = order
	return dropped
}

func (b *Buffer) finish(tempID string, status types.MessageStatus) {
	entry, ok := b.pending[tempID]
	if !ok {
		return
	}
	b.terminal[tempID] = terminalRecord{status: status, ctx: entry.ctx}
	delete(b.pending, tempID)
	for i, id := range b.order {
		if id == tempID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func validDraft(draft types.Draft) (types.Draft, bool) {
	attachments := make([]string, 0, len(draft.Attachments))
	for _, att := range draft.Attachments {
		if att = strings.TrimSpace(att); att != "" {
			attachments = append(attachments, att)
		}
	}
	draft.Attachments = attachments
	return draft, strings.TrimSpace(draft.Text) != "" || len(attachments) > 0
}
