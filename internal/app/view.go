package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"chatsync/internal/chat"
)

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading…"
	}
	contentWidth := m.contentWidth()
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.headerLine(contentWidth),
		m.viewport.View(),
		m.attachmentLine(contentWidth),
		m.composer.View(),
	)
	body := content
	if sidebarWidth := m.sidebarWidth(); sidebarWidth > 0 {
		height := lipgloss.Height(content)
		divider := dividerStyle.Render(strings.TrimRight(strings.Repeat("│\n", height), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(sidebarWidth, height), divider, content)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine(m.width))
}

func (m *Model) headerLine(width int) string {
	title := "New chat"
	if id := m.engine.Store().SessionID(); id != "" {
		title = m.engine.Store().Session(id).DisplayTitle()
	}
	line := headerStyle.Render(truncateToWidth(title, width))
	if m.busy() {
		line += " " + m.loader.View()
	}
	return line
}

func (m *Model) attachmentLine(width int) string {
	if m.mode == uiModeRename || m.mode == uiModeAttach {
		return truncateToWidth(m.prompt.View(), width)
	}
	if len(m.attachments) == 0 {
		return ""
	}
	names := make([]string, 0, len(m.attachments))
	for _, att := range m.attachments {
		names = append(names, attachmentName(att))
	}
	return attachmentStyle.Render(truncateToWidth("📎 "+strings.Join(names, ", "), width))
}

func (m *Model) statusLine(width int) string {
	if toast := m.toastLine(width); toast != "" {
		return toast
	}
	text := m.status
	if text == "" {
		text = m.hint()
	}
	return statusStyle.Render(truncateToWidth(text, width))
}

func (m *Model) hint() string {
	if m.focus == focusSidebar {
		return "enter open · n new · f filter · / search · r rename · d delete · s save · tab chat"
	}
	hint := "enter send · ctrl+j newline · ctrl+o attach · ctrl+n new chat · tab chats"
	if m.route != chat.RouteNewChat {
		hint += " · ctrl+y copy reply"
	}
	return hint
}

func padLines(lines []string, width int) string {
	if width <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if w := xansi.StringWidth(line); w < width {
			line += strings.Repeat(" ", width-w)
		}
		out[i] = line
	}
	return strings.Join(out, "\n")
}
