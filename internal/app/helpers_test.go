package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/chat"
	"chatsync/internal/client"
	"chatsync/internal/devserver"
	"chatsync/internal/store"
	"chatsync/internal/types"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// fakeAPI serves requests from the in-memory dev backend and records them.
type fakeAPI struct {
	svc *devserver.SessionService

	mu      sync.Mutex
	sendErr error
	sends   []client.SendMessageRequest
	uploads [][]string
	calls   []string
}

func newFakeAPI() *fakeAPI {
	n := 0
	return &fakeAPI{svc: devserver.NewSessionService(devserver.ServiceOptions{
		Now: func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("srv-%d", n)
		},
	})}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) SendMessage(ctx context.Context, req client.SendMessageRequest) (*client.SendMessageResponse, error) {
	f.record("send")
	f.mu.Lock()
	f.sends = append(f.sends, req)
	err := f.sendErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	resp, err := f.svc.Send(ctx, devserver.SendMessageRequest{
		SessionID:   req.SessionID,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err != nil {
		return nil, asAPIError(err)
	}
	return &client.SendMessageResponse{SessionID: resp.SessionID, Messages: resp.Messages}, nil
}

func (f *fakeAPI) GetSession(ctx context.Context, id string) (*types.ChatSession, error) {
	f.record("get:" + id)
	session, err := f.svc.Get(ctx, id)
	return session, asAPIError(err)
}

func (f *fakeAPI) ListSessions(ctx context.Context) ([]*types.SessionSummary, error) {
	f.record("list")
	sessions, err := f.svc.List(ctx)
	return sessions, asAPIError(err)
}

func (f *fakeAPI) RenameSession(ctx context.Context, id, title string) error {
	f.record("rename:" + id)
	return asAPIError(f.svc.Rename(ctx, id, title))
}

func (f *fakeAPI) DeleteSession(ctx context.Context, id string) error {
	f.record("delete:" + id)
	return asAPIError(f.svc.Delete(ctx, id))
}

func (f *fakeAPI) SaveSession(ctx context.Context, id string) error {
	f.record("save:" + id)
	return asAPIError(f.svc.Save(ctx, id))
}

func (f *fakeAPI) UploadFiles(ctx context.Context, paths []string) ([]string, error) {
	f.record("upload")
	f.mu.Lock()
	f.uploads = append(f.uploads, append([]string(nil), paths...))
	f.mu.Unlock()
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		if client.IsRemoteAttachment(path) {
			urls = append(urls, path)
			continue
		}
		urls = append(urls, "https://files.test/"+filepath.Base(path))
	}
	return urls, nil
}

func asAPIError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *devserver.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}
	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case devserver.ServiceErrorInvalid:
		status = http.StatusBadRequest
	case devserver.ServiceErrorNotFound:
		status = http.StatusNotFound
	case devserver.ServiceErrorConflict:
		status = http.StatusConflict
	}
	return &client.APIError{StatusCode: status, Message: svcErr.Message}
}

func seedSession(id, title string, activity time.Time, msgs ...types.Message) *types.ChatSession {
	return &types.ChatSession{
		SessionSummary: types.SessionSummary{ID: id, Title: title, CreatedAt: activity, LastActivityAt: activity},
		Messages:       msgs,
	}
}

func newTestModel(t *testing.T, configure ...func(*ModelOptions)) (*Model, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	opts := ModelOptions{
		API:                 api,
		IDs:                 &chat.SequentialTempIDs{},
		Now:                 func() time.Time { return testNow },
		Location:            time.UTC,
		RefreshAfterConfirm: true,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	m := NewModel(opts)
	m.resize(120, 30)
	return m, api
}

func withRepository(repo store.Repository) func(*ModelOptions) {
	return func(opts *ModelOptions) {
		opts.Repository = repo
	}
}

// collect runs cmd and returns the messages it produced without feeding
// them back. Commands that block (timers, blink) are skipped.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := runCmd(next)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		out = append(out, msg)
	}
	return out
}

// drain runs cmd and feeds every resulting app message back into the model
// until nothing is left, in FIFO order.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatalf("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := runCmd(next)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		if !isAppMsg(msg) {
			continue
		}
		_, follow := m.Update(msg)
		queue = append(queue, follow)
	}
}

func feed(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, msg := range msgs {
		_, cmd := m.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case sendResultMsg, loadResultMsg, sessionsMsg, mutationResultMsg, invalidateResultMsg,
		appStateLoadedMsg, sessionCacheMsg, draftLoadedMsg, persistErrMsg:
		return true
	}
	return false
}

func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(250 * time.Millisecond):
		return nil, false
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func messageContents(msgs []types.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Content)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
