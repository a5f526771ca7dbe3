package main

import (
	"context"
	"os"
	"strings"

	chatclient "chatsync/internal/client"
	"chatsync/internal/config"
	"chatsync/internal/logging"
	"chatsync/internal/types"
)

type clientFactory func(cfg config.Config) (commandClient, error)

type commandClient interface {
	ListSessions(ctx context.Context) ([]*types.SessionSummary, error)
	GetSession(ctx context.Context, id string) (*types.ChatSession, error)
	SendMessage(ctx context.Context, req chatclient.SendMessageRequest) (*chatclient.SendMessageResponse, error)
	UploadFiles(ctx context.Context, paths []string) ([]string, error)
	RenameSession(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error
	SaveSession(ctx context.Context, id string) error
}

var _ commandClient = (*chatclient.Client)(nil)

func newChatClient(cfg config.Config) (commandClient, error) {
	tokens, err := tokenSource(cfg)
	if err != nil {
		return nil, err
	}
	return newBackendClient(cfg, tokens, nil), nil
}

func newBackendClient(cfg config.Config, tokens chatclient.TokenSource, logger logging.Logger) *chatclient.Client {
	return chatclient.New(chatclient.Options{
		BaseURL:        cfg.BackendURL(),
		Tokens:         tokens,
		RequestTimeout: cfg.RequestTimeout(),
		SendTimeout:    cfg.SendTimeout(),
		Logger:         logger,
	})
}

// tokenSource prefers CHATSYNC_TOKEN and otherwise reads the token file.
func tokenSource(cfg config.Config) (chatclient.TokenSource, error) {
	if token := strings.TrimSpace(os.Getenv(config.EnvToken)); token != "" {
		return chatclient.StaticToken(token), nil
	}
	path, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	return chatclient.NewFileTokenSource(path), nil
}
