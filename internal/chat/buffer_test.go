package chat

import (
	"errors"
	"reflect"
	"testing"

	"chatsync/internal/types"
)

type constantIDs string

func (c constantIDs) NewTempID() string {
	return string(c)
}

func newTestBuffer() (*Store, *Buffer) {
	store := NewStore()
	clock := &fakeClock{now: testNow}
	return store, NewBuffer(store, &SequentialTempIDs{}, clock.Now)
}

func TestAppendOptimisticAddsPendingAtEnd(t *testing.T) {
	store, buffer := newTestBuffer()
	store.appendMessage(userMsg("m1", "earlier"))

	tempID, err := buffer.AppendOptimistic("Hello", []string{"https://cdn.test/a.png"})
	if err != nil {
		t.Fatalf("AppendOptimistic: %v", err)
	}
	if tempID != "temp-1" {
		t.Fatalf("unexpected temp id %q", tempID)
	}
	msgs := store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %#v", msgs)
	}
	last := msgs[1]
	if last.ID != "temp-1" || last.Status != types.MessagePending || last.Sender != types.SenderUser {
		t.Fatalf("unexpected optimistic message %#v", last)
	}
	if !last.Timestamp.Equal(testNow) || len(last.Attachments) != 1 {
		t.Fatalf("unexpected optimistic fields %#v", last)
	}
}

func TestAppendOptimisticRejectsDuplicateTempID(t *testing.T) {
	store := NewStore()
	buffer := NewBuffer(store, constantIDs("temp-x"), nil)
	if _, err := buffer.AppendOptimistic("one", nil); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := buffer.AppendOptimistic("two", nil); !errors.Is(err, ErrDuplicateTempID) {
		t.Fatalf("expected ErrDuplicateTempID, got %v", err)
	}
	pending := 0
	for _, msg := range store.Messages() {
		if msg.ID == "temp-x" && msg.Status == types.MessagePending {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("expected exactly one pending temp-x, got %d", pending)
	}
}

func TestAppendOptimisticAddsPrefix(t *testing.T) {
	store := NewStore()
	buffer := NewBuffer(store, constantIDs("abc"), nil)
	tempID, err := buffer.AppendOptimistic("hi", nil)
	if err != nil {
		t.Fatalf("AppendOptimistic: %v", err)
	}
	if tempID != "temp-abc" || !types.IsTempID(tempID) {
		t.Fatalf("unexpected temp id %q", tempID)
	}
}

func TestConfirmReplacesInPlaceWithFollowups(t *testing.T) {
	store, buffer := newTestBuffer()
	first, _ := buffer.AppendOptimistic("first", nil)
	second, _ := buffer.AppendOptimistic("second", nil)

	if !buffer.Confirm(first, userMsg("u1", "first"), assistantMsg("a1", "reply")) {
		t.Fatalf("expected confirm to apply")
	}
	got := messageIDs(store.Messages())
	want := []string{"u1", "a1", second}
	if !equalStrings(got, want) {
		t.Fatalf("unexpected order: got=%v want=%v", got, want)
	}
	if msgs := store.Messages(); msgs[0].Status != types.MessageConfirmed || msgs[1].Status != types.MessageConfirmed {
		t.Fatalf("expected confirmed statuses: %#v", msgs)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	store, buffer := newTestBuffer()
	tempID, _ := buffer.AppendOptimistic("hello", nil)
	buffer.Confirm(tempID, userMsg("u1", "hello"), assistantMsg("a1", "hi"))
	before := store.Messages()
	revision := store.Revision()

	if buffer.Confirm(tempID, userMsg("u1", "hello"), assistantMsg("a1", "hi")) {
		t.Fatalf("second confirm should be a no-op")
	}
	if !reflect.DeepEqual(before, store.Messages()) || revision != store.Revision() {
		t.Fatalf("second confirm changed state: before=%#v after=%#v", before, store.Messages())
	}
}

func TestConfirmDoesNotDuplicateKnownMessages(t *testing.T) {
	store, buffer := newTestBuffer()
	tempID, _ := buffer.AppendOptimistic("hello", nil)
	// A refresh already delivered the canonical message and its reply.
	store.applySnapshot([]types.Message{userMsg("u1", "hello"), assistantMsg("a1", "hi")}, func(msg types.Message) bool {
		return msg.Status == types.MessagePending
	})

	buffer.Confirm(tempID, userMsg("u1", "hello"), assistantMsg("a1", "hi"))
	got := messageIDs(store.Messages())
	if !equalStrings(got, []string{"u1", "a1"}) {
		t.Fatalf("unexpected messages %v", got)
	}
}

func TestConfirmWithoutPendingEntryIsNoop(t *testing.T) {
	store, buffer := newTestBuffer()
	tempID, _ := buffer.AppendOptimistic("hello", nil)
	store.applySnapshot([]types.Message{userMsg("u0", "older")}, nil)

	if buffer.Confirm(tempID, userMsg("u1", "hello")) {
		t.Fatalf("confirm without a visible pending entry should be a no-op")
	}
	if got := messageIDs(store.Messages()); !equalStrings(got, []string{"u0"}) {
		t.Fatalf("unexpected messages %v", got)
	}
}

func TestRollbackSafety(t *testing.T) {
	store, buffer := newTestBuffer()
	confirmed, _ := buffer.AppendOptimistic("kept", nil)
	buffer.Confirm(confirmed, userMsg("u1", "kept"))
	failed, _ := buffer.AppendOptimistic("dropped", nil)

	if !buffer.Rollback(failed) {
		t.Fatalf("expected rollback to apply")
	}
	before := store.Messages()
	if buffer.Rollback(failed) {
		t.Fatalf("second rollback should be a no-op")
	}
	if buffer.Rollback(confirmed) {
		t.Fatalf("rollback of a confirmed id should be a no-op")
	}
	if !reflect.DeepEqual(before, store.Messages()) {
		t.Fatalf("no-op rollbacks changed state: %#v", store.Messages())
	}
	if got := messageIDs(store.Messages()); !equalStrings(got, []string{"u1"}) {
		t.Fatalf("unexpected messages %v", got)
	}
}

func TestFirstTerminalTransitionWins(t *testing.T) {
	store, buffer := newTestBuffer()
	tempID, _ := buffer.AppendOptimistic("hello", nil)
	buffer.Rollback(tempID)
	if buffer.Confirm(tempID, userMsg("u1", "hello")) {
		t.Fatalf("confirm after rollback should not apply")
	}
	status, ok := buffer.Terminal(tempID)
	if !ok || status != types.MessageFailed {
		t.Fatalf("expected failed terminal state, got %v %v", status, ok)
	}
	if len(store.Messages()) != 0 {
		t.Fatalf("expected empty list, got %#v", store.Messages())
	}
}

func TestConfirmUnknownTempIDLeavesNoRecord(t *testing.T) {
	store, buffer := newTestBuffer()
	store.appendMessage(userMsg("u0", "older"))

	if buffer.Confirm("temp-99", userMsg("u1", "hello")) {
		t.Fatalf("confirm of an id never issued should report false")
	}
	if buffer.Rollback("temp-98") {
		t.Fatalf("rollback of an id never issued should report false")
	}
	if _, ok := buffer.Terminal("temp-99"); ok {
		t.Fatalf("unknown id should not be recorded as terminal")
	}
	if _, ok := buffer.Terminal("temp-98"); ok {
		t.Fatalf("unknown id should not be recorded as terminal")
	}
	if got := messageIDs(store.Messages()); !equalStrings(got, []string{"u0"}) {
		t.Fatalf("unexpected messages %v", got)
	}
}

func TestForgetPrunesTerminalRecordsOfLeftContexts(t *testing.T) {
	store, buffer := newTestBuffer()
	store.enter("s1")
	confirmed, _ := buffer.AppendOptimistic("kept", nil)
	buffer.Confirm(confirmed, userMsg("u1", "kept"))
	failed, _ := buffer.AppendOptimistic("dropped", nil)
	buffer.Rollback(failed)
	abandoned, _ := buffer.AppendOptimistic("in flight", nil)

	store.enter("s2")
	dropped := buffer.forget(store.IsActive)
	if !equalStrings(dropped, []string{abandoned}) {
		t.Fatalf("unexpected dropped entries %v", dropped)
	}
	for _, id := range []string{confirmed, failed, abandoned} {
		if _, ok := buffer.Terminal(id); ok {
			t.Fatalf("terminal record for %s survived navigation", id)
		}
	}
	if len(buffer.terminal) != 0 {
		t.Fatalf("expected no terminal records, got %d", len(buffer.terminal))
	}
}

func TestForgetKeepsTerminalRecordsOfActiveContext(t *testing.T) {
	store, buffer := newTestBuffer()
	store.enter("")
	tempID, _ := buffer.AppendOptimistic("first", nil)
	buffer.Rollback(tempID)

	// Assigning the server id keeps the context sequence.
	store.assign("srv-1")
	buffer.forget(store.IsActive)
	if status, ok := buffer.Terminal(tempID); !ok || status != types.MessageFailed {
		t.Fatalf("expected failed terminal record to survive, got %v %v", status, ok)
	}
}
