package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"chatsync/internal/chat"
	"chatsync/internal/client"
	"chatsync/internal/types"
)

func requestContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// sendCmd uploads local attachments first, then posts the message with the
// resulting URLs.
func sendCmd(api ChatAPI, timeout time.Duration, eff chat.SendEffect) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(context.Background(), timeout)
		defer cancel()
		attachments := eff.Attachments
		if len(attachments) > 0 {
			urls, err := api.UploadFiles(ctx, attachments)
			if err != nil {
				return sendResultMsg{ticket: eff.Ticket, tempID: eff.TempID, err: fmt.Errorf("upload attachments: %w", err)}
			}
			attachments = urls
		}
		resp, err := api.SendMessage(ctx, client.SendMessageRequest{
			SessionID:   eff.SessionID,
			Text:        eff.Text,
			Attachments: attachments,
		})
		return sendResultMsg{ticket: eff.Ticket, tempID: eff.TempID, resp: resp, err: err}
	}
}

func loadCmd(api ChatAPI, parent context.Context, timeout time.Duration, eff chat.LoadEffect) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(parent, timeout)
		defer cancel()
		session, err := api.GetSession(ctx, eff.SessionID)
		return loadResultMsg{ticket: eff.Ticket, refresh: eff.Refresh, session: session, err: err}
	}
}

func listCmd(api ChatAPI, parent context.Context, timeout time.Duration, eff chat.ListEffect) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(parent, timeout)
		defer cancel()
		sessions, err := api.ListSessions(ctx)
		return sessionsMsg{ticket: eff.Ticket, sessions: sessions, err: err}
	}
}

func mutateCmd(api ChatAPI, timeout time.Duration, eff chat.MutateEffect) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(context.Background(), timeout)
		defer cancel()
		var err error
		switch eff.Op {
		case chat.OpRename:
			err = api.RenameSession(ctx, eff.SessionID, eff.Title)
		case chat.OpDelete:
			err = api.DeleteSession(ctx, eff.SessionID)
		case chat.OpSave:
			err = api.SaveSession(ctx, eff.SessionID)
		default:
			err = fmt.Errorf("unknown session operation %q", eff.Op)
		}
		return mutationResultMsg{ticket: eff.Ticket, op: eff.Op, sessionID: eff.SessionID, err: err}
	}
}

// invalidateCmd re-fetches the list and the open session side by side. A
// failure of one does not cancel the other.
func invalidateCmd(api ChatAPI, timeout time.Duration, eff chat.InvalidateEffect) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := requestContext(context.Background(), timeout)
		defer cancel()
		msg := invalidateResultMsg{ticket: eff.Ticket}
		var group errgroup.Group
		group.Go(func() error {
			msg.sessions, msg.listErr = api.ListSessions(ctx)
			return nil
		})
		if eff.SessionID != "" {
			group.Go(func() error {
				msg.session, msg.sessionErr = api.GetSession(ctx, eff.SessionID)
				return nil
			})
		}
		_ = group.Wait()
		return msg
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(at time.Time) tea.Msg {
		return tickMsg(at)
	})
}

func cloneDraft(draft types.Draft) types.Draft {
	out := types.Draft{Text: draft.Text}
	if len(draft.Attachments) > 0 {
		out.Attachments = append([]string(nil), draft.Attachments...)
	}
	return out
}
