package chat

import (
	"net/url"
	"strings"

	"chatsync/internal/logging"
)

const (
	RouteNewChat    = "/"
	chatRoutePrefix = "/chat/"
)

// RouteForSession returns the canonical route of a session, or the new-chat
// route for an empty id.
func RouteForSession(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return RouteNewChat
	}
	return chatRoutePrefix + url.PathEscape(id)
}

// ParseRoute extracts the session id from a route. The new-chat route yields
// an empty id.
func ParseRoute(route string) (string, bool) {
	route = strings.TrimSpace(route)
	if route == "" || route == RouteNewChat {
		return "", true
	}
	if !strings.HasPrefix(route, chatRoutePrefix) {
		return "", false
	}
	id, err := url.PathUnescape(strings.TrimSuffix(strings.TrimPrefix(route, chatRoutePrefix), "/"))
	if err != nil || strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// OpenSession navigates to an existing session. The load happens when the
// route change is reported back through RouteChanged.
func (e *Engine) OpenSession(id string) []Effect {
	id = strings.TrimSpace(id)
	if id == "" {
		return e.NewChat()
	}
	if id == e.store.SessionID() {
		return nil
	}
	return []Effect{NavigateEffect{Route: RouteForSession(id)}}
}

// NewChat leaves the current session for an unsaved chat.
func (e *Engine) NewChat() []Effect {
	if e.store.SessionID() != "" {
		return []Effect{NavigateEffect{Route: RouteNewChat}}
	}
	if e.creation == nil && len(e.store.messages) == 0 {
		return nil
	}
	// Already on the new-chat route, so no route change will follow.
	e.enter("")
	return nil
}

// RouteChanged applies a navigation. A route for a different session starts
// a new context; the route reported right after a session was created is
// not loaded again.
func (e *Engine) RouteChanged(route string) []Effect {
	id, ok := ParseRoute(route)
	if !ok {
		e.logger.Debug("ignoring unknown route", logging.F("route", route))
		return nil
	}
	if id == e.store.SessionID() {
		if id != "" && e.suppressLoad == id {
			e.suppressLoad = ""
			e.logger.Debug("skipping redundant session load", logging.F("session_id", id))
			return nil
		}
		if id == "" || e.store.Loaded() {
			return nil
		}
		return []Effect{e.loadEffect(false)}
	}
	e.enter(id)
	if id == "" {
		return nil
	}
	return []Effect{e.loadEffect(false)}
}

func (e *Engine) enter(id string) {
	prev := e.store.Context()
	next := e.store.enter(id)
	e.creation = nil
	e.suppressLoad = ""
	dropped := e.buffer.forget(e.store.IsActive)
	e.logger.Debug("session context changed",
		logging.F("from", prev.String()),
		logging.F("to", next.String()),
		logging.F("abandoned_pending", len(dropped)),
	)
}

// assignSession records the id the server gave the unsaved chat. The store
// is updated before the navigation is emitted, and the load that navigation
// would trigger is suppressed.
func (e *Engine) assignSession(id string) []Effect {
	ctx := e.store.assign(id)
	e.suppressLoad = id
	e.logger.Info("session created", logging.F("session_id", id), logging.F("context", ctx.String()))
	return []Effect{NavigateEffect{Route: RouteForSession(id)}}
}
