package types

import (
	"strings"
	"time"
)

// TempIDPrefix marks message ids generated by the client before the server
// has confirmed the message. Server ids never carry it.
const TempIDPrefix = "temp-"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// ParseSender accepts the canonical values plus the capitalized spelling
// some backends emit ("User", "Assistant").
func ParseSender(raw string) (Sender, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return SenderUser, true
	case "assistant", "ai", "bot":
		return SenderAssistant, true
	default:
		return "", false
	}
}

type MessageStatus int

const (
	MessageConfirmed MessageStatus = iota
	MessagePending
	MessageFailed
)

func (s MessageStatus) String() string {
	switch s {
	case MessagePending:
		return "pending"
	case MessageFailed:
		return "failed"
	default:
		return "confirmed"
	}
}

type Message struct {
	ID          string        `json:"id"`
	Sender      Sender        `json:"sender"`
	Content     string        `json:"content"`
	Attachments []string      `json:"attachments,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      MessageStatus `json:"-"`
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

func (m Message) IsTemporary() bool {
	return IsTempID(m.ID)
}

func (m Message) Clone() Message {
	out := m
	if len(m.Attachments) > 0 {
		out.Attachments = append([]string(nil), m.Attachments...)
	}
	return out
}

func CloneMessages(in []Message) []Message {
	out := make([]Message, 0, len(in))
	for _, msg := range in {
		out = append(out, msg.Clone())
	}
	return out
}
