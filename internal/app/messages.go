package app

import (
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/client"
	"chatsync/internal/types"
)

type sendResultMsg struct {
	ticket chat.Ticket
	tempID string
	resp   *client.SendMessageResponse
	err    error
}

type loadResultMsg struct {
	ticket  chat.Ticket
	refresh bool
	session *types.ChatSession
	err     error
}

type sessionsMsg struct {
	ticket   chat.Ticket
	sessions []*types.SessionSummary
	err      error
}

type mutationResultMsg struct {
	ticket    chat.Ticket
	op        string
	sessionID string
	err       error
}

type invalidateResultMsg struct {
	ticket     chat.Ticket
	sessions   []*types.SessionSummary
	listErr    error
	session    *types.ChatSession
	sessionErr error
}

type tickMsg time.Time

type appStateLoadedMsg struct {
	state *types.AppState
	err   error
}

type sessionCacheMsg struct {
	sessions  []*types.SessionSummary
	fetchedAt time.Time
	err       error
}

type draftLoadedMsg struct {
	sessionID string
	draft     types.Draft
	ok        bool
	err       error
}

type persistErrMsg struct {
	what string
	err  error
}
