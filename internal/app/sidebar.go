package app

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"chatsync/internal/chat"
	"chatsync/internal/types"
)

const (
	emptySearchText = "No matching chats found."
	emptyListText   = "No chats found."
)

func (m *Model) projection() chat.Projection {
	return chat.Project(m.engine.Store().Sessions(), m.filter, m.search, m.now(), m.location)
}

func (m *Model) visibleSessions() []*types.SessionSummary {
	return m.projection().Ordered()
}

func (m *Model) selectedSession() *types.SessionSummary {
	sessions := m.visibleSessions()
	if m.selected < 0 || m.selected >= len(sessions) {
		return nil
	}
	return sessions[m.selected]
}

func (m *Model) moveSelection(delta int) {
	n := len(m.visibleSessions())
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = min(n-1, max(0, m.selected+delta))
}

func (m *Model) clampSelection() {
	n := len(m.visibleSessions())
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// selectSession moves the cursor onto id when it is visible.
func (m *Model) selectSession(id string) {
	if id == "" {
		return
	}
	for i, session := range m.visibleSessions() {
		if session.ID == id {
			m.selected = i
			return
		}
	}
}

func (m *Model) renderSidebar(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := []string{
		headerStyle.Render(truncateToWidth("Chats", width)) + " " + filterStyle.Render("["+m.filter.Label()+"]"),
	}
	if m.mode == uiModeSearch {
		lines = append(lines, truncateToWidth(m.prompt.View(), width))
	} else if m.search != "" {
		lines = append(lines, helpStyle.Render(truncateToWidth("search: "+m.search, width)))
	}

	proj := m.projection()
	if proj.Empty() {
		text := emptyListText
		if strings.TrimSpace(m.search) != "" {
			text = emptySearchText
		}
		lines = append(lines, "", helpStyle.Render(truncateToWidth(text, width)))
		return padLines(fitHeight(lines, height), width)
	}

	current := m.engine.Store().SessionID()
	index := 0
	group := func(label string, sessions []*types.SessionSummary) {
		if len(sessions) == 0 {
			return
		}
		lines = append(lines, groupStyle.Render(truncateToWidth(label, width)))
		for _, session := range sessions {
			lines = append(lines, m.renderSidebarRow(session, index, current, width))
			index++
		}
	}
	group("Today", proj.Today)
	group("Yesterday", proj.Yesterday)
	for _, date := range proj.OlderDates {
		group(date, proj.Older[date])
	}
	return padLines(scrollToSelection(lines, m.selectedLine(proj), height), width)
}

func (m *Model) renderSidebarRow(session *types.SessionSummary, index int, current string, width int) string {
	marker := "  "
	if session.ID == current {
		marker = "● "
	}
	flags := ""
	if session.Pinned {
		flags += " ★"
	}
	if session.Saved {
		flags += " ✓"
	}
	titleWidth := max(1, width-runewidth.StringWidth(marker)-runewidth.StringWidth(flags))
	title := runewidth.Truncate(session.DisplayTitle(), titleWidth, "…")
	row := marker + title + flags
	switch {
	case index == m.selected && m.focus == focusSidebar:
		return selectedStyle.Render(runewidth.FillRight(row, width))
	case session.ID == current:
		return activeSessionStyle.Render(row)
	default:
		return sessionStyle.Render(row)
	}
}

// selectedLine is the sidebar line of the selected row, counting the
// header lines and group labels above it.
func (m *Model) selectedLine(proj chat.Projection) int {
	line := 1
	if m.mode == uiModeSearch || m.search != "" {
		line++
	}
	remaining := m.selected
	groups := [][]*types.SessionSummary{proj.Today, proj.Yesterday}
	for _, date := range proj.OlderDates {
		groups = append(groups, proj.Older[date])
	}
	for _, sessions := range groups {
		if len(sessions) == 0 {
			continue
		}
		line++
		if remaining < len(sessions) {
			return line + remaining
		}
		line += len(sessions)
		remaining -= len(sessions)
	}
	return line
}

func scrollToSelection(lines []string, selected, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(len(lines), start+height)
	return lines[start:end]
}

func fitHeight(lines []string, height int) []string {
	if len(lines) > height {
		return lines[:height]
	}
	return lines
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
