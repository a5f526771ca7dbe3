package chat

import "chatsync/internal/types"

// Ticket tags an async request with the context and store revision it was
// issued under. Results are checked against it before they touch the store.
type Ticket struct {
	ID       uint64
	Context  SessionContext
	Revision uint64
}

// Effect is work the engine asks the app to perform after a transition.
type Effect interface {
	effect()
}

// SendEffect posts a message. An empty SessionID creates a session.
type SendEffect struct {
	Ticket      Ticket
	TempID      string
	SessionID   string
	Text        string
	Attachments []string
}

// LoadEffect fetches a session. Refresh loads are best effort and are
// dropped if the list changed after they were issued.
type LoadEffect struct {
	Ticket    Ticket
	SessionID string
	Refresh   bool
}

type ListEffect struct {
	Ticket Ticket
}

type MutateEffect struct {
	Ticket    Ticket
	Op        string
	SessionID string
	Title     string
}

// InvalidateEffect re-fetches the session list and, when SessionID is set,
// that session. The two fetches are independent.
type InvalidateEffect struct {
	Ticket    Ticket
	SessionID string
}

type NavigateEffect struct {
	Route string
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

type NotifyEffect struct {
	Level NoticeLevel
	Text  string
	Err   *SyncError
}

// RestoreDraftEffect hands failed input back to the composer.
type RestoreDraftEffect struct {
	Draft types.Draft
}

func (SendEffect) effect()         {}
func (LoadEffect) effect()         {}
func (ListEffect) effect()         {}
func (MutateEffect) effect()       {}
func (InvalidateEffect) effect()   {}
func (NavigateEffect) effect()     {}
func (NotifyEffect) effect()       {}
func (RestoreDraftEffect) effect() {}
