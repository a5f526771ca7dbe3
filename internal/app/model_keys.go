package app

import (
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/chat"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	switch m.mode {
	case uiModeSearch:
		return m.handleSearchKey(msg)
	case uiModeRename, uiModeAttach:
		return m.handlePromptKey(msg)
	case uiModeConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	}
	if cmd, handled := m.handleGlobalKey(msg); handled {
		return cmd
	}
	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleComposerKey(msg)
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "tab":
		m.toggleFocus()
		return nil, true
	case "ctrl+n":
		return m.newChat(), true
	case "ctrl+b":
		m.sidebarHidden = !m.sidebarHidden
		if m.sidebarHidden {
			m.focus = focusComposer
			m.composer.Focus()
		}
		m.layout()
		return m.saveAppStateCmd(), true
	case "ctrl+y":
		m.copyLastReply()
		return nil, true
	case "ctrl+r":
		m.setStatus("Refreshing chats…")
		return m.applyEffects(m.engine.List()), true
	case "ctrl+o":
		m.beginPrompt(uiModeAttach, "", "attach file: ")
		return nil, true
	case "pgup":
		m.viewport.HalfPageUp()
		m.follow = false
		return nil, true
	case "pgdown":
		m.viewport.HalfPageDown()
		m.follow = m.viewport.AtBottom()
		return nil, true
	}
	return nil, false
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc":
		if len(m.attachments) > 0 {
			m.attachments = nil
			m.setStatus("Attachments cleared.")
			return nil
		}
		m.toggleFocus()
		return nil
	case "up":
		if strings.TrimSpace(m.composer.Value()) == "" && len(m.composeHistory) > 0 {
			m.composer.SetValue(m.composeHistory[len(m.composeHistory)-1])
			m.composer.CursorEnd()
			return nil
		}
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc":
		m.toggleFocus()
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "home", "g":
		m.selected = 0
	case "end", "G":
		m.selected = max(0, len(m.visibleSessions())-1)
	case "enter":
		if session := m.selectedSession(); session != nil {
			m.focus = focusComposer
			m.composer.Focus()
			return m.openSession(session.ID)
		}
	case "n":
		return m.newChat()
	case "f":
		m.filter = m.filter.Next()
		m.selected = 0
		m.setStatus("Showing " + strings.ToLower(m.filter.Label()) + " chats.")
		return m.saveAppStateCmd()
	case "/":
		m.beginPrompt(uiModeSearch, m.search, "search: ")
	case "r":
		if session := m.selectedSession(); session != nil {
			m.beginPrompt(uiModeRename, session.Title, "rename: ")
			m.promptTarget = session.ID
		}
	case "d":
		if session := m.selectedSession(); session != nil {
			m.mode = uiModeConfirmDelete
			m.promptTarget = session.ID
			m.setStatus("Delete \"" + session.DisplayTitle() + "\"? (y/n)")
		}
	case "s":
		if session := m.selectedSession(); session != nil {
			effects, err := m.engine.Save(session.ID)
			if err != nil {
				m.setStatus(chat.UserMessage(chat.Classify(chat.OpSave, err)))
				return nil
			}
			return m.applyEffects(effects)
		}
	case "y":
		m.copyLastReply()
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.endPrompt()
		return nil
	case "esc":
		m.search = ""
		m.selected = 0
		m.endPrompt()
		return nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	m.search = m.prompt.Value()
	m.selected = 0
	return cmd
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.endPrompt()
		m.setStatus("")
		return nil
	case "enter":
		value := m.prompt.Value()
		mode, target := m.mode, m.promptTarget
		m.endPrompt()
		if mode == uiModeAttach {
			m.addAttachment(value)
			return nil
		}
		effects, err := m.engine.Rename(target, value)
		if err != nil {
			m.setStatus(chat.UserMessage(chat.Classify(chat.OpRename, err)))
			return nil
		}
		m.setStatus("")
		return m.applyEffects(effects)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) handleConfirmDeleteKey(msg tea.KeyMsg) tea.Cmd {
	target := m.promptTarget
	m.mode = uiModeNormal
	m.promptTarget = ""
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		effects, err := m.engine.Delete(target)
		if err != nil {
			m.setStatus(chat.UserMessage(chat.Classify(chat.OpDelete, err)))
			return nil
		}
		m.setStatus("")
		return m.applyEffects(effects)
	default:
		m.setStatus("Delete cancelled.")
		return nil
	}
}

func (m *Model) beginPrompt(mode uiMode, value, label string) {
	m.mode = mode
	m.prompt.Prompt = label
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	m.composer.Blur()
}

func (m *Model) endPrompt() {
	m.mode = uiModeNormal
	m.promptTarget = ""
	m.prompt.Blur()
	m.prompt.Reset()
	if m.focus == focusComposer {
		m.composer.Focus()
	}
}

func (m *Model) toggleFocus() {
	if m.focus == focusComposer && !m.sidebarHidden {
		m.focus = focusSidebar
		m.composer.Blur()
		return
	}
	m.focus = focusComposer
	m.composer.Focus()
}

func (m *Model) addAttachment(raw string) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	m.attachments = append(m.attachments, path)
	m.setStatus("Attached " + filepath.Base(path) + ".")
}

func (m *Model) quit() tea.Cmd {
	m.cancelAllRequestScopes()
	return tea.Quit
}
