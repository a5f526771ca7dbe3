package types

import (
	"testing"
	"time"
)

func TestDisplayTitleFallsBackToUntitled(t *testing.T) {
	cases := []*SessionSummary{nil, {}, {Title: "   "}}
	for _, s := range cases {
		if got := s.DisplayTitle(); got != UntitledSessionTitle {
			t.Fatalf("DisplayTitle(%#v) = %q", s, got)
		}
	}
	if got := (&SessionSummary{Title: " Trip "}).DisplayTitle(); got != "Trip" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestActivityAtFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &SessionSummary{CreatedAt: created}
	if !s.ActivityAt().Equal(created) {
		t.Fatalf("expected created time, got %v", s.ActivityAt())
	}
	s.LastActivityAt = created.Add(time.Hour)
	if !s.ActivityAt().Equal(created.Add(time.Hour)) {
		t.Fatalf("expected last activity, got %v", s.ActivityAt())
	}
}

func TestCloneSummariesSkipsNilAndCopies(t *testing.T) {
	in := []*SessionSummary{{ID: "a", Title: "A"}, nil}
	out := CloneSummaries(in)
	if len(out) != 1 {
		t.Fatalf("expected nil entries dropped, got %d", len(out))
	}
	out[0].Title = "changed"
	if in[0].Title != "A" {
		t.Fatalf("expected clone to be independent")
	}
}

func TestDraftEmpty(t *testing.T) {
	if !(Draft{Text: "  \n"}).Empty() {
		t.Fatalf("expected whitespace draft to be empty")
	}
	if (Draft{Attachments: []string{"/tmp/a.png"}}).Empty() {
		t.Fatalf("expected attachment-only draft to be non-empty")
	}
}
