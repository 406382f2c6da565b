// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/ui/components"
)

// Fixed rows around the message pane: header, notice, input (3 + border),
// status bar.
const chromeRows = 8

// layout sizes the panes after a resize.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	side := m.sidebarWidth()
	main := m.width - side
	m.input.SetWidth(max(main-4, 10))
	m.viewport.Width = max(main-2, 10)
	m.viewport.Height = max(m.height-chromeRows, 3)
	m.detailsVP.Width = max(m.width-8, 20)
	m.detailsVP.Height = max(m.height-6, 5)
	m.renderDetails()
}

// sidebarWidth hides the sidebar on narrow terminals.
func (m Model) sidebarWidth() int {
	if m.width < 70 {
		return 0
	}
	return m.deps.SidebarWidth
}

// renderMessages refreshes the message pane content. It follows the bottom
// unless a message is selected.
func (m *Model) renderMessages() {
	content := components.RenderMessages(m.theme, m.state.Messages, m.highlighted(), components.MessageOptions{
		Width:        m.viewport.Width,
		ShowSQL:      m.showSQL,
		SpinnerFrame: m.spinner.Frame(),
		Markdown:     m.md,
	})
	if m.state.Loading {
		content = m.theme.Muted.Render("Cargando mensajes...")
	}
	m.viewport.SetContent(content)
	if m.selected < 0 {
		m.viewport.GotoBottom()
	}
}

// highlighted is the message index drawn with the selection marker.
func (m Model) highlighted() int {
	if m.focus != focusMessages {
		return -1
	}
	if m.selected < 0 {
		return len(m.state.Messages) - 1
	}
	return m.selected
}

func (m *Model) renderDetails() {
	if m.details == nil {
		return
	}
	m.detailsVP.SetContent(components.RenderDetails(m.theme, m.details, m.detailsVP.Width, m.md))
	m.detailsVP.GotoTop()
}

// View renders the current screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Cargando..."
	}
	switch m.screen {
	case screenLogin:
		help := components.RenderShortcuts(m.theme, m.width, m.keys.LoginHelp()...)
		return m.login.view(m.theme, m.width, m.height, help)
	case screenAdmin:
		return m.viewAdmin()
	}
	if m.details != nil {
		return m.viewDetails()
	}
	return m.viewChat()
}

func (m Model) viewChat() string {
	t := m.theme
	side := m.sidebarWidth()
	main := m.width - side

	title := "Nueva conversación"
	if m.state.Active != nil {
		title = m.state.Active.DisplayTitle()
	}
	header := t.Header.Width(main).Render(t.Brand.Render("statchat") + "  " + t.Muted.Render(title))

	var notice string
	switch {
	case m.flash.text != "":
		notice = components.RenderNotice(t, m.flash.text, m.flash.isError, main)
	case m.state.Notice != "":
		notice = components.RenderNotice(t, m.state.Notice, true, main)
	case m.registryNotice != "":
		notice = components.RenderNotice(t, m.registryNotice, true, main)
	}

	var bottom string
	if m.confirm == confirmDeleteConversation {
		bottom = components.RenderConfirm(t, confirmDelete)
	} else {
		inputStyle := t.InputContainer
		if m.state.Busy {
			inputStyle = t.InputDisabled
		}
		bottom = inputStyle.Width(main - 2).Render(m.input.View())
	}
	if m.spinner.Active() {
		notice = strings.TrimSpace(notice + "  " + m.spinner.View(t))
	}

	pane := lipgloss.JoinVertical(lipgloss.Left,
		header,
		notice,
		m.viewport.View(),
		bottom,
	)
	if side > 0 {
		m.sidebar.Stats = m.statsForSidebar()
		m.sidebar.Loading = !m.deps.Registry.Loaded() && m.registryNotice == ""
		pane = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(t, side, m.height-1), pane)
	}
	help := components.RenderShortcuts(t, m.width, m.keys.ChatHelp(m.sidebar.Admin)...)
	return pane + "\n" + help
}

func (m Model) statsForSidebar() *model.Stats {
	if m.deps.Stats == nil {
		return nil
	}
	return m.deps.Stats.Stats()
}

func (m Model) viewDetails() string {
	t := m.theme
	modal := t.Modal.Width(m.width - 4).Render(m.detailsVP.View())
	var notice string
	if m.flash.text != "" {
		notice = components.RenderNotice(t, m.flash.text, m.flash.isError, m.width)
	}
	help := components.RenderShortcuts(t, m.width, m.keys.Copy, m.keys.Up, m.keys.Down, m.keys.Close)
	return lipgloss.JoinVertical(lipgloss.Left, modal, notice, help)
}
