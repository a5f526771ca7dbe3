package types

import (
	"strings"
	"time"
)

const UntitledSessionTitle = "Untitled Chat"

// SessionSummary is the list-level view of a chat session.
type SessionSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	Pinned         bool      `json:"pinned,omitempty"`
	Saved          bool      `json:"saved,omitempty"`
}

// DisplayTitle returns the title, or the placeholder when none is set.
func (s *SessionSummary) DisplayTitle() string {
	if s == nil {
		return UntitledSessionTitle
	}
	title := strings.TrimSpace(s.Title)
	if title == "" {
		return UntitledSessionTitle
	}
	return title
}

// ActivityAt falls back to CreatedAt for sessions the server never touched.
func (s *SessionSummary) ActivityAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	if s.LastActivityAt.IsZero() {
		return s.CreatedAt
	}
	return s.LastActivityAt
}

type ChatSession struct {
	SessionSummary
	Messages []Message `json:"messages"`
}

func CloneSummary(in *SessionSummary) *SessionSummary {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func CloneSummaries(in []*SessionSummary) []*SessionSummary {
	out := make([]*SessionSummary, 0, len(in))
	for _, s := range in {
		if s == nil {
			continue
		}
		out = append(out, CloneSummary(s))
	}
	return out
}
