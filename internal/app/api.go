package app

import (
	"context"

	"chatsync/internal/client"
	"chatsync/internal/types"
)

// ChatAPI is the backend surface the UI drives. *client.Client satisfies it.
type ChatAPI interface {
	SendMessage(ctx context.Context, req client.SendMessageRequest) (*client.SendMessageResponse, error)
	GetSession(ctx context.Context, id string) (*types.ChatSession, error)
	ListSessions(ctx context.Context) ([]*types.SessionSummary, error)
	RenameSession(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error
	SaveSession(ctx context.Context, id string) error
	UploadFiles(ctx context.Context, paths []string) ([]string, error)
}

var _ ChatAPI = (*client.Client)(nil)
