package chat

import (
	"errors"
	"fmt"
	"strings"

	"chatsync/internal/client"
	"chatsync/internal/types"
)

type OutcomeKind int

const (
	// OutcomeCreated: the send carried no session id and the server created
	// one.
	OutcomeCreated OutcomeKind = iota + 1
	// OutcomeAppended: the message was added to an existing session.
	OutcomeAppended
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeAppended:
		return "appended"
	default:
		return "unknown"
	}
}

// SendOutcome is a validated POST /messages response.
type SendOutcome struct {
	Kind      OutcomeKind
	SessionID string
	// Canonical is the server's version of the user message that was sent.
	Canonical types.Message
	// Followups are the replies to Canonical: the non-user messages that
	// directly follow it.
	Followups []types.Message
	// Unclaimed counts messages of the response that are neither known
	// locally nor part of this send, such as the turn of a concurrent send.
	Unclaimed int
}

// SendMatch identifies the user message a send carried, so the server's
// copy can be found in a response that repeats earlier history.
type SendMatch struct {
	Text string
	// Attachments is a count; uploads rewrite local paths into URLs.
	Attachments int
	// Known reports ids already confirmed locally. Nil means none are.
	Known func(id string) bool
}

func (m SendMatch) matches(msg types.Message) bool {
	if m.Text == "" && m.Attachments == 0 {
		return false
	}
	return strings.TrimSpace(msg.Content) == strings.TrimSpace(m.Text) && len(msg.Attachments) == m.Attachments
}

func (m SendMatch) known(id string) bool {
	return m.Known != nil && m.Known(id)
}

// ParseSendOutcome validates resp against the request it answers. Any
// violation is reported as ErrInvalidOutcome.
//
// The response may carry only the new turn or the whole history. The
// canonical message is the first unknown user message matching the send,
// then the first unknown user message, then the last known one matching
// the send (a refresh delivered it first).
func ParseSendOutcome(requestedSessionID string, match SendMatch, resp *client.SendMessageResponse) (SendOutcome, error) {
	if resp == nil {
		return SendOutcome{}, fmt.Errorf("%w: empty body", ErrInvalidOutcome)
	}
	sessionID := strings.TrimSpace(resp.SessionID)
	if sessionID == "" {
		return SendOutcome{}, fmt.Errorf("%w: missing sessionId", ErrInvalidOutcome)
	}
	requestedSessionID = strings.TrimSpace(requestedSessionID)
	kind := OutcomeCreated
	if requestedSessionID != "" {
		if sessionID != requestedSessionID {
			return SendOutcome{}, fmt.Errorf("%w: sessionId %q does not match %q", ErrInvalidOutcome, sessionID, requestedSessionID)
		}
		kind = OutcomeAppended
	}

	messages := make([]types.Message, 0, len(resp.Messages))
	for i, msg := range resp.Messages {
		msg, err := validMessage(msg)
		if err != nil {
			return SendOutcome{}, fmt.Errorf("%w: message %d %v", ErrInvalidOutcome, i, err)
		}
		messages = append(messages, msg)
	}
	canonical := pickCanonical(messages, match)
	if canonical < 0 {
		return SendOutcome{}, fmt.Errorf("%w: no user message", ErrInvalidOutcome)
	}
	end := canonical + 1
	for end < len(messages) && messages[end].Sender != types.SenderUser {
		end++
	}
	unclaimed := 0
	for i, msg := range messages {
		if i >= canonical && i < end {
			continue
		}
		if !match.known(msg.ID) {
			unclaimed++
		}
	}
	return SendOutcome{
		Kind:      kind,
		SessionID: sessionID,
		Canonical: messages[canonical],
		Followups: messages[canonical+1 : end],
		Unclaimed: unclaimed,
	}, nil
}

func pickCanonical(messages []types.Message, match SendMatch) int {
	fresh, echoed := -1, -1
	for i, msg := range messages {
		if msg.Sender != types.SenderUser {
			continue
		}
		same := match.matches(msg)
		if !match.known(msg.ID) {
			if same {
				return i
			}
			if fresh < 0 {
				fresh = i
			}
			continue
		}
		if same {
			echoed = i
		}
	}
	if fresh >= 0 {
		return fresh
	}
	return echoed
}

// validMessage normalizes a server message. A message needs a server id and
// a known sender.
func validMessage(msg types.Message) (types.Message, error) {
	msg.ID = strings.TrimSpace(msg.ID)
	if msg.ID == "" {
		return msg, errors.New("has no id")
	}
	if types.IsTempID(msg.ID) {
		return msg, errors.New("has a temporary id")
	}
	sender, ok := types.ParseSender(string(msg.Sender))
	if !ok {
		return msg, fmt.Errorf("has sender %q", msg.Sender)
	}
	msg.Sender = sender
	msg.Status = types.MessageConfirmed
	return msg, nil
}

// validSnapshot returns the valid messages of a fetched session along with
// one error per dropped entry.
func validSnapshot(in []types.Message) ([]types.Message, []error) {
	out := make([]types.Message, 0, len(in))
	var dropped []error
	for i, msg := range in {
		msg, err := validMessage(msg)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("message %d %v", i, err))
			continue
		}
		out = append(out, msg)
	}
	return out, dropped
}
