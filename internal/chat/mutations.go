package chat

import (
	"strings"

	"chatsync/internal/logging"
	"chatsync/internal/types"
)

// Rename asks the server to retitle a session. The local title is not
// changed until the list is re-fetched.
func (e *Engine) Rename(sessionID, title string) ([]Effect, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError(OpRename, ErrNoSession)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError(OpRename, ErrEmptyTitle)
	}
	return []Effect{MutateEffect{Ticket: e.ticket(), Op: OpRename, SessionID: sessionID, Title: title}}, nil
}

func (e *Engine) Delete(sessionID string) ([]Effect, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError(OpDelete, ErrNoSession)
	}
	return []Effect{MutateEffect{Ticket: e.ticket(), Op: OpDelete, SessionID: sessionID}}, nil
}

func (e *Engine) Save(sessionID string) ([]Effect, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError(OpSave, ErrNoSession)
	}
	return []Effect{MutateEffect{Ticket: e.ticket(), Op: OpSave, SessionID: sessionID}}, nil
}

// MutationCompleted applies the result of a MutateEffect. Success and
// conflicts both end in an authoritative re-fetch of the list and, when it
// is open, the affected session.
func (e *Engine) MutationCompleted(ticket Ticket, op, sessionID string, err error) []Effect {
	if err != nil {
		syncErr := Classify(op, err)
		if syncErr.Kind == KindStaleContext {
			return nil
		}
		e.logger.Warn("session mutation failed",
			logging.F("op", op),
			logging.F("session_id", sessionID),
			logging.F("kind", string(syncErr.Kind)),
			logging.Err(err),
		)
		effects := []Effect{e.notify(syncErr)}
		if syncErr.Kind == KindConflict {
			effects = append(effects, e.invalidate(sessionID))
		}
		return effects
	}

	e.logger.Info("session mutation applied",
		logging.F("op", op),
		logging.F("session_id", sessionID),
		logging.F("ticket", ticket.ID),
	)
	var effects []Effect
	switch op {
	case OpDelete:
		e.store.removeSession(sessionID)
		effects = append(effects, NotifyEffect{Level: NoticeInfo, Text: "Chat deleted."})
		if sessionID == e.store.SessionID() {
			effects = append(effects, NavigateEffect{Route: RouteNewChat})
			return append(effects, e.listEffect())
		}
	case OpRename:
		effects = append(effects, NotifyEffect{Level: NoticeInfo, Text: "Chat renamed."})
	case OpSave:
		effects = append(effects, NotifyEffect{Level: NoticeInfo, Text: "Chat saved."})
	}
	return append(effects, e.invalidate(sessionID))
}

// InvalidateCompleted applies the two fetches of an InvalidateEffect.
func (e *Engine) InvalidateCompleted(ticket Ticket, sessions []*types.SessionSummary, listErr error, session *types.ChatSession, sessionErr error) []Effect {
	effects := e.SessionsListed(ticket, sessions, listErr)
	if ticket.Context.SessionID != "" && (session != nil || sessionErr != nil) {
		effects = append(effects, e.LoadCompleted(ticket, session, sessionErr)...)
	}
	return effects
}

func (e *Engine) invalidate(sessionID string) InvalidateEffect {
	ticket := e.ticket()
	current := ""
	if sessionID == e.store.SessionID() {
		current = sessionID
	}
	return InvalidateEffect{Ticket: ticket, SessionID: current}
}
