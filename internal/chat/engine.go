package chat

import (
	"strings"
	"time"

	"chatsync/internal/client"
	"chatsync/internal/logging"
	"chatsync/internal/types"
)

const (
	OpSend    = "send"
	OpLoad    = "load"
	OpRefresh = "refresh"
	OpList    = "list"
	OpRename  = "rename"
	OpDelete  = "delete"
	OpSave    = "save"
)

type EngineOptions struct {
	IDs    IDGenerator
	Now    func() time.Time
	Logger logging.Logger
	// RefreshAfterConfirm re-fetches the session after a confirmed send to
	// pick up server-side post-processing.
	RefreshAfterConfirm bool
	// PendingTimeout bounds how long a message may stay pending. Zero
	// disables the watchdog.
	PendingTimeout time.Duration
}

type creation struct {
	tempID string
	ctx    SessionContext
}

// Engine reconciles optimistic input with server responses. Every method is
// a reducer: it runs on the event loop, mutates the store synchronously and
// returns the effects the caller must execute.
type Engine struct {
	store               *Store
	buffer              *Buffer
	logger              logging.Logger
	now                 func() time.Time
	refreshAfterConfirm bool
	pendingTimeout      time.Duration

	tickets      uint64
	creation     *creation
	suppressLoad string
	listApplied  uint64
}

func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := NewStore()
	return &Engine{
		store:               store,
		buffer:              NewBuffer(store, opts.IDs, now),
		logger:              logger,
		now:                 now,
		refreshAfterConfirm: opts.RefreshAfterConfirm,
		pendingTimeout:      opts.PendingTimeout,
	}
}

func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Buffer() *Buffer {
	return e.buffer
}

// Creating reports whether a send without a session id is in flight.
func (e *Engine) Creating() bool {
	return e.creation != nil
}

// Submit moves a draft from composing to sending. Blank input is rejected
// without any request.
func (e *Engine) Submit(draft types.Draft) ([]Effect, error) {
	draft, ok := validDraft(draft)
	if !ok {
		return nil, validationError(OpSend, ErrEmptyMessage)
	}
	tempID, err := e.buffer.AppendOptimistic(strings.TrimSpace(draft.Text), draft.Attachments)
	if err != nil {
		return nil, &SyncError{Kind: KindValidation, Op: OpSend, Err: err}
	}
	ctx := e.store.Context()
	e.logger.Debug("send submitted",
		logging.F("temp_id", tempID),
		logging.F("context", ctx.String()),
		logging.F("attachments", len(draft.Attachments)),
	)
	if ctx.SessionID == "" {
		if e.creation != nil {
			e.buffer.entry(tempID).held = true
			e.logger.Debug("send held until session is created", logging.F("temp_id", tempID))
			return nil, nil
		}
		e.creation = &creation{tempID: tempID, ctx: ctx}
	}
	return []Effect{e.sendEffect(tempID)}, nil
}

// SendCompleted applies the result of a SendEffect.
func (e *Engine) SendCompleted(ticket Ticket, tempID string, resp *client.SendMessageResponse, err error) []Effect {
	if !e.store.IsActive(ticket.Context) {
		e.logger.Debug("discarding stale send result",
			logging.F("temp_id", tempID),
			logging.F("context", ticket.Context.String()),
			logging.F("active", e.store.Context().String()),
		)
		if err != nil {
			return nil
		}
		// The server accepted it; only the sidebar may show that.
		return []Effect{e.listEffect()}
	}
	if err != nil {
		syncErr := Classify(OpSend, err)
		if syncErr.Kind == KindStaleContext {
			return nil
		}
		return e.failSend(tempID, syncErr)
	}
	match := SendMatch{Known: e.store.confirmed}
	if entry := e.buffer.entry(tempID); entry != nil {
		match.Text = entry.draft.Text
		match.Attachments = len(entry.draft.Attachments)
	}
	outcome, err := ParseSendOutcome(ticket.Context.SessionID, match, resp)
	if err != nil {
		return e.failSend(tempID, &SyncError{Kind: KindNetwork, Op: OpSend, Err: err})
	}
	if status, done := e.buffer.Terminal(tempID); done {
		e.logger.Info("send confirmed after terminal state",
			logging.F("temp_id", tempID),
			logging.F("state", status),
			logging.F("session_id", outcome.SessionID),
		)
		effects := []Effect{e.listEffect()}
		if outcome.SessionID == e.store.SessionID() {
			effects = append(effects, e.loadEffect(true))
		}
		return effects
	}
	if !e.buffer.IsPending(tempID) {
		return nil
	}

	var effects []Effect
	created := outcome.Kind == OutcomeCreated && e.store.SessionID() == ""
	if created {
		effects = append(effects, e.assignSession(outcome.SessionID)...)
	}
	e.buffer.Confirm(tempID, outcome.Canonical, outcome.Followups...)
	e.store.touchSession(outcome.SessionID, e.activityAt(outcome))
	e.logger.Debug("send confirmed",
		logging.F("temp_id", tempID),
		logging.F("message_id", outcome.Canonical.ID),
		logging.F("outcome", outcome.Kind),
	)
	if created {
		e.creation = nil
		effects = append(effects, e.releaseHeld()...)
	}
	effects = append(effects, e.listEffect())
	// Unclaimed messages belong to turns this client did not send or has not
	// confirmed yet; the refresh brings them in once nothing is pending.
	if (e.refreshAfterConfirm || outcome.Unclaimed > 0) && !e.hasPending() {
		effects = append(effects, e.loadEffect(true))
	}
	return effects
}

// LoadCompleted applies a session fetched after navigation or invalidation.
func (e *Engine) LoadCompleted(ticket Ticket, session *types.ChatSession, err error) []Effect {
	if !e.store.IsActive(ticket.Context) {
		e.logger.Debug("discarding stale session load", logging.F("context", ticket.Context.String()))
		return nil
	}
	if err != nil {
		syncErr := Classify(OpLoad, err)
		if syncErr.Kind == KindStaleContext {
			return nil
		}
		e.logger.Warn("session load failed", logging.F("session_id", ticket.Context.SessionID), logging.Err(err))
		if client.IsNotFound(err) {
			e.store.removeSession(ticket.Context.SessionID)
			return []Effect{
				NotifyEffect{Level: NoticeWarning, Text: "Chat not found.", Err: syncErr},
				NavigateEffect{Route: RouteNewChat},
				e.listEffect(),
			}
		}
		return []Effect{e.notify(syncErr)}
	}
	if session == nil || session.ID != ticket.Context.SessionID {
		return []Effect{e.notify(&SyncError{Kind: KindNetwork, Op: OpLoad, Err: ErrInvalidOutcome})}
	}
	superseded := ticket.Revision < e.store.Revision()
	e.store.applySnapshot(e.validSnapshot(OpLoad, session), func(msg types.Message) bool {
		if msg.Status == types.MessagePending {
			return e.buffer.IsPending(msg.ID)
		}
		return superseded
	})
	e.store.upsertSession(session.SessionSummary)
	if superseded {
		// Local sends landed while this load was in flight; converge on a
		// fresh snapshot.
		return []Effect{e.loadEffect(true)}
	}
	return nil
}

// RefreshCompleted applies a best-effort refresh. It is dropped when the
// visible list changed after the refresh was issued.
func (e *Engine) RefreshCompleted(ticket Ticket, session *types.ChatSession, err error) []Effect {
	if !e.store.IsActive(ticket.Context) {
		e.logger.Debug("discarding stale refresh", logging.F("context", ticket.Context.String()))
		return nil
	}
	if ticket.Revision < e.store.Revision() {
		e.logger.Debug("discarding superseded refresh",
			logging.F("ticket_revision", ticket.Revision),
			logging.F("store_revision", e.store.Revision()),
		)
		return nil
	}
	if err != nil {
		syncErr := Classify(OpRefresh, err)
		e.logger.Warn("refresh failed", logging.F("session_id", ticket.Context.SessionID), logging.Err(err))
		if syncErr.Kind == KindUnauthorized {
			return []Effect{e.notify(syncErr)}
		}
		return nil
	}
	if session == nil || session.ID != ticket.Context.SessionID {
		return nil
	}
	e.store.applySnapshot(e.validSnapshot(OpRefresh, session), func(msg types.Message) bool {
		return msg.Status == types.MessagePending && e.buffer.IsPending(msg.ID)
	})
	e.store.upsertSession(session.SessionSummary)
	return nil
}

// SessionsListed applies a session list. Responses older than the last
// applied list are dropped.
func (e *Engine) SessionsListed(ticket Ticket, sessions []*types.SessionSummary, err error) []Effect {
	if ticket.ID < e.listApplied {
		e.logger.Debug("discarding out-of-order session list", logging.F("ticket", ticket.ID))
		return nil
	}
	if err != nil {
		syncErr := Classify(OpList, err)
		if syncErr.Kind == KindStaleContext {
			return nil
		}
		e.logger.Warn("session list failed", logging.Err(err))
		return []Effect{e.notify(syncErr)}
	}
	e.listApplied = ticket.ID
	e.store.setSessions(sessions)
	return nil
}

// Expire fails every sent message still pending after the configured
// timeout, regardless of what the transport does.
func (e *Engine) Expire(now time.Time) []Effect {
	if e.pendingTimeout <= 0 {
		return nil
	}
	var effects []Effect
	for _, id := range e.buffer.PendingIDs() {
		entry := e.buffer.entry(id)
		if entry == nil || entry.held {
			continue
		}
		if now.Sub(entry.issuedAt) < e.pendingTimeout {
			continue
		}
		effects = append(effects, e.failSend(id, &SyncError{Kind: KindNetwork, Op: OpSend, Err: ErrPendingTimeout})...)
	}
	return effects
}

// List requests the session list.
func (e *Engine) List() []Effect {
	return []Effect{e.listEffect()}
}

// SeedSessions shows a cached list until the first fetched list lands.
// It reports whether the cache was used.
func (e *Engine) SeedSessions(sessions []*types.SessionSummary) bool {
	if e.listApplied > 0 || len(e.store.sessions) > 0 {
		return false
	}
	e.store.setSessions(sessions)
	return true
}

// validSnapshot drops and logs server messages that fail validation.
func (e *Engine) validSnapshot(op string, session *types.ChatSession) []types.Message {
	messages, dropped := validSnapshot(session.Messages)
	for _, err := range dropped {
		e.logger.Warn("dropping invalid server message",
			logging.F("op", op),
			logging.F("session_id", session.ID),
			logging.Err(err),
		)
	}
	return messages
}

func (e *Engine) failSend(tempID string, syncErr *SyncError) []Effect {
	entry := e.buffer.entry(tempID)
	if entry == nil {
		return nil
	}
	drafts := []types.Draft{entry.draft}
	e.buffer.Rollback(tempID)
	if e.creation != nil && e.creation.tempID == tempID {
		e.creation = nil
		for _, id := range e.buffer.PendingIDs() {
			held := e.buffer.entry(id)
			if held == nil || !held.held {
				continue
			}
			drafts = append(drafts, held.draft)
			e.buffer.Rollback(id)
		}
	}
	e.logger.Warn("send failed",
		logging.F("temp_id", tempID),
		logging.F("kind", string(syncErr.Kind)),
		logging.F("rolled_back", len(drafts)),
		logging.Err(syncErr.Err),
	)
	return []Effect{
		e.notify(syncErr),
		RestoreDraftEffect{Draft: mergeDrafts(drafts)},
	}
}

// releaseHeld dispatches sends queued while the session was being created.
func (e *Engine) releaseHeld() []Effect {
	var effects []Effect
	now := e.now()
	for _, id := range e.buffer.PendingIDs() {
		entry := e.buffer.entry(id)
		if entry == nil || !entry.held {
			continue
		}
		entry.held = false
		entry.issuedAt = now
		entry.ctx = e.store.Context()
		effects = append(effects, e.sendEffect(id))
	}
	return effects
}

func (e *Engine) hasPending() bool {
	return len(e.buffer.PendingIDs()) > 0
}

func (e *Engine) ticket() Ticket {
	e.tickets++
	return Ticket{ID: e.tickets, Context: e.store.Context(), Revision: e.store.Revision()}
}

func (e *Engine) sendEffect(tempID string) SendEffect {
	entry := e.buffer.entry(tempID)
	return SendEffect{
		Ticket:      e.ticket(),
		TempID:      tempID,
		SessionID:   e.store.SessionID(),
		Text:        entry.draft.Text,
		Attachments: append([]string(nil), entry.draft.Attachments...),
	}
}

func (e *Engine) loadEffect(refresh bool) LoadEffect {
	return LoadEffect{Ticket: e.ticket(), SessionID: e.store.SessionID(), Refresh: refresh}
}

func (e *Engine) listEffect() ListEffect {
	return ListEffect{Ticket: e.ticket()}
}

func (e *Engine) notify(syncErr *SyncError) NotifyEffect {
	level := NoticeError
	if syncErr.Kind == KindConflict {
		level = NoticeWarning
	}
	return NotifyEffect{Level: level, Text: UserMessage(syncErr), Err: syncErr}
}

func (e *Engine) activityAt(outcome SendOutcome) time.Time {
	latest := outcome.Canonical.Timestamp
	for _, msg := range outcome.Followups {
		if msg.Timestamp.After(latest) {
			latest = msg.Timestamp
		}
	}
	if latest.IsZero() {
		return e.now()
	}
	return latest
}

func mergeDrafts(drafts []types.Draft) types.Draft {
	var texts []string
	var out types.Draft
	for _, draft := range drafts {
		if text := strings.TrimSpace(draft.Text); text != "" {
			texts = append(texts, text)
		}
		out.Attachments = append(out.Attachments, draft.Attachments...)
	}
	out.Text = strings.Join(texts, "\n")
	return out
}
