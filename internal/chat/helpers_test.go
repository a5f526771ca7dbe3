package chat

import (
	"testing"
	"time"

	"chatsync/internal/client"
	"chatsync/internal/types"
)

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, configure ...func(*EngineOptions)) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: testNow}
	opts := EngineOptions{
		IDs:                 &SequentialTempIDs{},
		Now:                 clock.Now,
		RefreshAfterConfirm: true,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return NewEngine(opts), clock
}

// openLoaded navigates to sessionID and applies a snapshot with msgs.
func openLoaded(t *testing.T, e *Engine, sessionID string, msgs ...types.Message) {
	t.Helper()
	effects := e.RouteChanged(RouteForSession(sessionID))
	load := effectOf[LoadEffect](t, effects)
	if load.SessionID != sessionID || load.Refresh {
		t.Fatalf("unexpected load effect: %#v", load)
	}
	session := &types.ChatSession{
		SessionSummary: types.SessionSummary{ID: sessionID, Title: "Existing", LastActivityAt: testNow},
		Messages:       msgs,
	}
	if out := e.LoadCompleted(load.Ticket, session, nil); len(out) != 0 {
		t.Fatalf("unexpected effects from load: %#v", out)
	}
}

func submit(t *testing.T, e *Engine, text string) []Effect {
	t.Helper()
	effects, err := e.Submit(types.Draft{Text: text})
	if err != nil {
		t.Fatalf("Submit(%q): %v", text, err)
	}
	return effects
}

func effectOf[T Effect](t *testing.T, effects []Effect) T {
	t.Helper()
	for _, effect := range effects {
		if v, ok := effect.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("expected %T in %#v", zero, effects)
	return zero
}

func effectsOf[T Effect](effects []Effect) []T {
	var out []T
	for _, effect := range effects {
		if v, ok := effect.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func messageIDs(msgs []types.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
	}
	return ids
}

func userMsg(id, content string) types.Message {
	return types.Message{ID: id, Sender: types.SenderUser, Content: content, Timestamp: testNow}
}

func assistantMsg(id, content string) types.Message {
	return types.Message{ID: id, Sender: types.SenderAssistant, Content: content, Timestamp: testNow}
}

func sendResponse(sessionID string, msgs ...types.Message) *client.SendMessageResponse {
	return &client.SendMessageResponse{SessionID: sessionID, Messages: msgs}
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
