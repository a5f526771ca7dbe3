package client

import "chatsync/internal/types"

type SendMessageRequest struct {
	SessionID   string   `json:"sessionId,omitempty"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}

type SendMessageResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []types.Message `json:"messages"`
}

type SessionsResponse struct {
	Sessions []*types.SessionSummary `json:"sessions"`
}

type RenameSessionRequest struct {
	Title string `json:"title"`
}

type UploadResponse struct {
	URLs []string `json:"urls"`
}
