package app

import (
	"context"
	"strings"
)

const (
	requestScopeSessionLoad    = "session_load"
	requestScopeSessionRefresh = "session_refresh"
	requestScopeSessionList    = "session_list"
)

type requestScope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// replaceRequestScope cancels the in-flight request of the same name and
// returns the context for its replacement.
func (m *Model) replaceRequestScope(name string) context.Context {
	if m == nil {
		return context.Background()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return context.Background()
	}
	m.cancelRequestScope(name)
	if m.requestScopes == nil {
		m.requestScopes = map[string]requestScope{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.requestScopes[name] = requestScope{ctx: ctx, cancel: cancel}
	return ctx
}

func (m *Model) hasRequestScope(name string) bool {
	if m == nil || m.requestScopes == nil {
		return false
	}
	_, ok := m.requestScopes[strings.TrimSpace(name)]
	return ok
}

func (m *Model) cancelRequestScope(name string) {
	if m == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" || m.requestScopes == nil {
		return
	}
	scope, ok := m.requestScopes[name]
	if !ok {
		return
	}
	if scope.cancel != nil {
		scope.cancel()
	}
	delete(m.requestScopes, name)
}

func (m *Model) cancelAllRequestScopes() {
	for name := range m.requestScopes {
		m.cancelRequestScope(name)
	}
}
