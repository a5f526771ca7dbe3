package app

import (
	"context"
	"errors"
	"testing"
)

func TestReplaceRequestScopeCancelsPrevious(t *testing.T) {
	m, _ := newTestModel(t)
	first := m.replaceRequestScope(requestScopeSessionLoad)
	second := m.replaceRequestScope(requestScopeSessionLoad)

	if !errors.Is(first.Err(), context.Canceled) {
		t.Fatalf("expected first scope cancelled, got %v", first.Err())
	}
	if second.Err() != nil {
		t.Fatalf("expected second scope live, got %v", second.Err())
	}
	m.cancelAllRequestScopes()
	if second.Err() == nil || m.hasRequestScope(requestScopeSessionLoad) {
		t.Fatalf("expected all scopes cancelled")
	}
}
