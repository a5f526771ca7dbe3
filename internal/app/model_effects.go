package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"chatsync/internal/chat"
	"chatsync/internal/logging"
	"chatsync/internal/types"
)

// applyEffects turns engine effects into commands. Navigation is applied
// in place, so the effects it produces run in the same pass.
func (m *Model) applyEffects(effects []chat.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for i := 0; i < len(effects); i++ {
		switch eff := effects[i].(type) {
		case chat.SendEffect:
			cmds = append(cmds, sendCmd(m.api, m.sendTimeout, eff), m.loader.Tick)
		case chat.LoadEffect:
			scope := requestScopeSessionLoad
			if eff.Refresh {
				scope = requestScopeSessionRefresh
			} else {
				cmds = append(cmds, m.loader.Tick)
			}
			ctx := m.replaceRequestScope(scope)
			cmds = append(cmds, loadCmd(m.api, ctx, m.requestTimeout, eff))
		case chat.ListEffect:
			ctx := m.replaceRequestScope(requestScopeSessionList)
			cmds = append(cmds, listCmd(m.api, ctx, m.requestTimeout, eff))
		case chat.MutateEffect:
			cmds = append(cmds, mutateCmd(m.api, m.requestTimeout, eff))
		case chat.InvalidateEffect:
			cmds = append(cmds, invalidateCmd(m.api, m.requestTimeout, eff))
		case chat.NavigateEffect:
			next, cmd := m.navigate(eff.Route)
			effects = append(effects, next...)
			cmds = append(cmds, cmd)
		case chat.NotifyEffect:
			m.notify(eff)
		case chat.RestoreDraftEffect:
			m.restoreDraft(eff.Draft)
		}
	}
	return tea.Batch(cmds...)
}

// navigate moves to route and reports the change to the engine. Leaving a
// conversation stashes its composer draft and loads the next one.
func (m *Model) navigate(route string) ([]chat.Effect, tea.Cmd) {
	s := m.engine.Store()
	prevID := s.SessionID()
	prevSeq := s.Context().Seq

	m.route = route
	effects := m.engine.RouteChanged(route)
	ctx := s.Context()

	// Assigning the created session id keeps the context sequence, so the
	// composer stays with the new chat. Its unsaved draft went on submit.
	var cmds []tea.Cmd
	if ctx.Seq != prevSeq {
		m.cancelRequestScope(requestScopeSessionLoad)
		m.cancelRequestScope(requestScopeSessionRefresh)
		cmds = append(cmds, m.putDraftCmd(prevID, m.currentDraft()))
		m.resetComposer()
		cmds = append(cmds, m.loadDraftCmd(ctx.SessionID))
		m.follow = true
		m.transcriptKey = ""
	}
	m.logger.Debug("route changed", logging.F("route", route), logging.F("context", ctx.String()))
	m.selectSession(ctx.SessionID)
	cmds = append(cmds, m.saveAppStateCmd())
	return effects, tea.Batch(cmds...)
}

func (m *Model) notify(eff chat.NotifyEffect) {
	text := strings.TrimSpace(eff.Text)
	if text == "" && eff.Err != nil {
		text = chat.UserMessage(eff.Err)
	}
	m.setStatus(text)
	if eff.Err != nil && eff.Err.Kind == chat.KindValidation {
		return
	}
	switch eff.Level {
	case chat.NoticeError:
		m.showErrorToast(text)
	case chat.NoticeWarning:
		m.showWarningToast(text)
	default:
		m.showInfoToast(text)
	}
}

// restoreDraft hands failed input back to the composer ahead of anything
// typed since.
func (m *Model) restoreDraft(draft types.Draft) {
	text := strings.TrimSpace(draft.Text)
	if current := strings.TrimSpace(m.composer.Value()); current != "" {
		if text == "" {
			text = current
		} else {
			text = text + "\n" + current
		}
	}
	m.composer.SetValue(text)
	m.attachments = append(append([]string(nil), draft.Attachments...), m.attachments...)
}

func (m *Model) resetComposer() {
	m.composer.Reset()
	m.attachments = nil
}

func (m *Model) submit() tea.Cmd {
	draft := m.currentDraft()
	effects, err := m.engine.Submit(draft)
	if err != nil {
		m.setStatus(chat.UserMessage(chat.Classify(chat.OpSend, err)))
		return nil
	}
	m.rememberCompose(draft.Text)
	m.resetComposer()
	m.follow = true
	m.setStatus("")
	return tea.Batch(
		m.deleteDraftCmd(m.engine.Store().SessionID()),
		m.applyEffects(effects),
	)
}

func (m *Model) openSession(id string) tea.Cmd {
	m.navigated = true
	return m.applyEffects(m.engine.OpenSession(id))
}

func (m *Model) newChat() tea.Cmd {
	m.navigated = true
	seq := m.engine.Store().Context().Seq
	wasNew := m.route == chat.RouteNewChat
	cmd := m.applyEffects(m.engine.NewChat())
	if wasNew && m.engine.Store().Context().Seq != seq {
		// Reset in place on the new-chat route.
		m.resetComposer()
		m.transcriptKey = ""
		cmd = tea.Batch(cmd, m.deleteDraftCmd(""))
	}
	m.focus = focusComposer
	m.composer.Focus()
	return cmd
}
