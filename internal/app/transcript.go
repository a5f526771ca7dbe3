package app

import (
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"chatsync/internal/types"
)

const (
	newChatHint  = "Start a new chat. Type a message below and press enter."
	emptyChatMsg = "No messages yet."
)

// syncTranscript re-renders the viewport when the visible messages, the
// width or the minute changed.
func (m *Model) syncTranscript() {
	key := m.transcriptSignature()
	if key == m.transcriptKey {
		return
	}
	m.transcriptKey = key
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) transcriptSignature() string {
	s := m.engine.Store()
	var b strings.Builder
	b.WriteString(s.Context().String())
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(m.viewport.Width))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(s.Loaded()))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(timestampBucket(m.now()), 10))
	if m.busy() {
		b.WriteString(m.loader.View())
	}
	for _, msg := range s.Messages() {
		b.WriteByte('|')
		b.WriteString(msg.ID)
		b.WriteByte(':')
		b.WriteString(msg.Status.String())
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(msg.Content)))
	}
	return b.String()
}

func (m *Model) renderTranscript(width int) string {
	s := m.engine.Store()
	messages := s.Messages()
	if len(messages) == 0 {
		switch {
		case s.SessionID() == "":
			return helpStyle.Render(newChatHint)
		case !s.Loaded():
			return m.loader.View() + " Loading chat…"
		default:
			return helpStyle.Render(emptyChatMsg)
		}
	}
	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	bubbleWidth := max(10, width-2)
	innerWidth := max(1, bubbleWidth-2-2*chatBubblePaddingHorizontal)

	var body string
	style := agentBubbleStyle
	switch {
	case msg.Status == types.MessageFailed:
		style = failedBubbleStyle
		body = xansi.Hardwrap(msg.Content, innerWidth, true)
	case msg.Sender == types.SenderUser:
		style = userBubbleStyle
		body = xansi.Hardwrap(msg.Content, innerWidth, true)
	default:
		body = renderMarkdown(msg.Content, innerWidth)
	}
	if len(msg.Attachments) > 0 {
		var lines []string
		for _, att := range msg.Attachments {
			lines = append(lines, attachmentStyle.Render(truncateToWidth("📎 "+attachmentName(att), innerWidth)))
		}
		if strings.TrimSpace(body) != "" {
			body += "\n"
		}
		body += strings.Join(lines, "\n")
	}
	bubble := style.Width(bubbleWidth).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.messageMeta(msg), bubble)
}

func (m *Model) messageMeta(msg types.Message) string {
	who := "Assistant"
	if msg.Sender == types.SenderUser {
		who = "You"
	}
	switch msg.Status {
	case types.MessagePending:
		return pendingMetaStyle.Render(who + " · " + m.loader.View() + " sending")
	case types.MessageFailed:
		return failedMetaStyle.Render(who + " · failed")
	}
	meta := who
	if ts := formatRelative(msg.Timestamp, m.now()); ts != "" {
		meta += " · " + ts
	}
	return chatMetaStyle.Render(meta)
}

func attachmentName(att string) string {
	att = strings.TrimRight(att, "/")
	if name := path.Base(att); name != "" && name != "." && name != "/" {
		return name
	}
	return att
}
