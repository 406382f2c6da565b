// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/session"
)

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.renderMessages()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.spinner.Active() {
			m.renderMessages()
		}
		return m, cmd

	case conversationEventMsg:
		return m.handleConversationEvent(msg.event)

	case sessionChangedMsg:
		return m.handleSessionChange(msg.change)

	case sessionExpiredMsg:
		m.login.notice = flash{text: noticeExpired, isError: true}
		return m, nil

	case adminChangedMsg:
		m.syncDraft()
		if n := len(m.deps.Panel.Terms()); m.admin.cursor >= n {
			m.admin.cursor = max(n-1, 0)
		}
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg)

	case sendDoneMsg:
		return m.handleSendDone(msg)

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("ui operation failed", "op", int(msg.op), "error", msg.err)
		}
		if msg.op == opLogout && msg.err != nil {
			m.flash = flash{text: session.ErrorMessage(msg.err), isError: true}
		}
		return m, nil

	case detailsMsg:
		if msg.err != nil {
			m.logger.Debug("details unavailable", "error", msg.err)
			return m, nil
		}
		m.details = msg.details
		m.renderDetails()
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.flash = flash{text: noticeCopyError, isError: true}
		} else {
			m.flash = flash{text: noticeCopied}
		}
		return m, nil
	}

	// Cursor blink and other component messages.
	return m.updateFocused(msg)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirm != confirmNone {
		return m.handleConfirm(msg)
	}
	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenAdmin:
		return m.updateAdmin(msg)
	}
	if m.details != nil {
		return m.handleDetailsKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	action := m.confirm
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.confirm = confirmNone
		switch action {
		case confirmDeleteConversation:
			return m, m.deleteCmd()
		case confirmDeleteTerm:
			return m, m.confirmedTermRemoval()
		}
	case key.Matches(msg, m.keys.No):
		m.confirm = confirmNone
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.login.pending {
		return m, nil
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.SwitchForm):
		return m, m.login.toggle()
	case key.Matches(msg, k.PrevField):
		return m, m.login.move(-1)
	case key.Matches(msg, k.NextField):
		return m, m.login.move(1)
	case key.Matches(msg, k.Send):
		if !m.login.lastField() {
			return m, m.login.move(1)
		}
		m.login.pending = true
		m.login.notice = flash{}
		if m.login.register {
			return m, m.registerCmd(m.login.registration())
		}
		return m, m.loginCmd(m.login.credentials())
	case key.Matches(msg, k.Close):
		m.login.notice = flash{}
		return m, nil
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) handleDetailsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.details = nil
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		query := m.details.Query
		if query == "" {
			m.flash = flash{text: noticeNoQuery, isError: true}
			return m, nil
		}
		return m, func() tea.Msg {
			return clipboardMsg{err: clipboard.WriteAll(query)}
		}
	}
	var cmd tea.Cmd
	m.detailsVP, cmd = m.detailsVP.Update(msg)
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Close):
		m.dismissNotices()
		return m, nil

	case key.Matches(msg, k.NewChat):
		m.deps.Manager.NewConversation()
		m.input.Reset()
		m.selected = -1
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, k.Restart):
		if m.state.Active == nil {
			return m, nil
		}
		return m, m.restartCmd()

	case key.Matches(msg, k.Delete):
		if m.state.Active != nil {
			m.confirm = confirmDeleteConversation
		}
		return m, nil

	case key.Matches(msg, k.Details):
		if id, ok := m.selectedMessageID(); ok {
			return m, m.detailsCmd(id)
		}
		return m, nil

	case key.Matches(msg, k.ShowSQL):
		m.showSQL = !m.showSQL
		m.renderMessages()
		return m, nil

	case key.Matches(msg, k.Admin):
		return m.openAdmin()

	case key.Matches(msg, k.Logout):
		return m, logoutCmd(m.deps.Session)

	case key.Matches(msg, k.Focus):
		return m, m.cycleFocus()
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusMessages:
		return m.handleMessagesKey(msg)
	}

	if key.Matches(msg, k.Send) {
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.deps.Manager.SetDraft(m.input.Value())
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, m.keys.Send):
		conv, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		m.selected = -1
		m.focus = focusInput
		m.sidebar.Focused = false
		return m, tea.Batch(m.loadCmd(conv), m.input.Focus())
	}
	return m, nil
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.state.Messages)
	if n == 0 {
		return m, nil
	}
	cur := m.selected
	if cur < 0 || cur >= n {
		cur = n - 1
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if cur > 0 {
			cur--
		}
	case key.Matches(msg, m.keys.Down):
		if cur < n-1 {
			cur++
		}
	case key.Matches(msg, m.keys.Send):
		return m, m.detailsCmd(m.state.Messages[cur].ID)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.selected = cur
	m.renderMessages()
	return m, nil
}

func (m *Model) cycleFocus() tea.Cmd {
	m.focus = (m.focus + 1) % 3
	m.sidebar.Focused = m.focus == focusSidebar
	m.renderMessages()
	if m.focus == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// submit hands the input to the manager. The text stays in the input while
// a previous question is still being answered.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	if m.state.Busy || m.deps.Manager.Busy() {
		m.flash = flash{text: noticeBusy, isError: true}
		return m, nil
	}
	m.input.Reset()
	m.deps.Manager.SetDraft("")
	m.selected = -1
	return m, tea.Batch(m.sendCmd(text), m.spinner.Start())
}

func (m *Model) dismissNotices() {
	m.flash = flash{}
	m.deps.Manager.DismissNotice()
	m.deps.Registry.DismissNotice()
}

func (m Model) selectedMessageID() (string, bool) {
	n := len(m.state.Messages)
	if n == 0 {
		return "", false
	}
	idx := m.selected
	if idx < 0 || idx >= n {
		idx = n - 1
	}
	return m.state.Messages[idx].ID, true
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.screen == screenLogin:
		m.login, cmd = m.login.update(msg)
	case m.screen == screenAdmin && m.admin.adding:
		m.admin.termInput, cmd = m.admin.termInput.Update(msg)
	case m.screen == screenChat && m.focus == focusInput:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// SERVICE EVENTS
// =============================================================================

func (m Model) handleConversationEvent(ev conversation.Event) (Model, tea.Cmd) {
	m.registryNotice = m.deps.Registry.Notice()
	switch ev.Kind {
	case conversation.EventListChanged:
		m.sidebar.Conversations = m.deps.Registry.List()
		m.sidebar.Clamp()
	default:
		m.state = m.deps.Manager.Snapshot()
		if m.state.Active != nil {
			m.sidebar.ActiveID = m.state.Active.ID
		} else {
			m.sidebar.ActiveID = ""
		}
		if !m.state.Busy {
			m.spinner.Stop()
		}
		if m.selected >= len(m.state.Messages) {
			m.selected = -1
		}
	}
	m.renderMessages()
	return m, nil
}

func (m Model) handleSendDone(msg sendDoneMsg) (Model, tea.Cmd) {
	m.state = m.deps.Manager.Snapshot()
	if !m.state.Busy {
		m.spinner.Stop()
	}
	if errors.Is(msg.err, conversation.ErrBusy) && m.input.Value() == "" {
		m.input.SetValue(msg.question)
	}
	m.renderMessages()
	return m, nil
}

func (m Model) handleAuthResult(msg authResultMsg) (Model, tea.Cmd) {
	m.login.pending = false
	if msg.err != nil {
		m.login.notice = flash{text: session.ErrorMessage(msg.err), isError: true}
		m.login.reset(false)
		return m, nil
	}
	if msg.register {
		m.login.notice = flash{text: session.MsgRegistered}
		m.login.reset(false)
		m.login.register = false
		m.login.active = fieldPassword
		return m, m.login.focusCmd()
	}
	return m, nil
}

// handleSessionChange routes between the login screen and the chat. It
// covers logins, logouts, expiry, and changes made by another process.
func (m Model) handleSessionChange(c session.Change) (Model, tea.Cmd) {
	m.sidebar.Username = c.Current.DisplayName()
	m.sidebar.Admin = m.deps.Session.IsAdmin()

	if c.Current.Valid() {
		if m.screen != screenLogin && c.Previous.UserID == c.Current.UserID {
			return m, nil
		}
		return m.enterChat()
	}
	if m.screen == screenLogin {
		return m, nil
	}
	return m.leaveChat(c.Reason)
}

func (m Model) enterChat() (Model, tea.Cmd) {
	m.deps.Manager.NewConversation()
	m.deps.Registry.Clear()
	m.state = m.deps.Manager.Snapshot()
	m.screen = screenChat
	m.focus = focusInput
	m.selected = -1
	m.details = nil
	m.confirm = confirmNone
	m.flash = flash{}
	m.login.reset(true)
	m.login.notice = flash{}
	m.input.Reset()
	m.renderMessages()
	return m, tea.Batch(m.input.Focus(), m.refreshListCmd(), m.refreshStatsCmd())
}

func (m Model) leaveChat(reason session.Reason) (Model, tea.Cmd) {
	m.deps.Manager.NewConversation()
	m.deps.Registry.Clear()
	m.state = m.deps.Manager.Snapshot()
	m.spinner.Stop()
	m.screen = screenLogin
	m.details = nil
	m.confirm = confirmNone
	m.flash = flash{}
	m.input.Blur()
	m.login.reset(true)
	if reason == session.ReasonExpired {
		m.login.notice = flash{text: noticeExpired, isError: true}
	} else {
		m.login.notice = flash{text: noticeLoggedOut}
	}
	return m, m.login.focusCmd()
}
