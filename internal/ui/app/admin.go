// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/ui/components"
	"github.com/jeranaias/statchat/internal/util"
)

// adminPane is the UI state of the admin screen. The data lives in
// admin.Panel.
type adminPane struct {
	cursor    int
	adding    bool
	termInput textinput.Model

	// draft holds edited prompt settings until they are saved.
	draft model.PromptSettings
	dirty bool
}

func newAdminPane() adminPane {
	ti := textinput.New()
	ti.Placeholder = "término a excluir"
	ti.CharLimit = 100
	ti.Width = 30
	return adminPane{termInput: ti, draft: model.DefaultPromptSettings()}
}

// syncDraft takes the panel's settings unless the user is editing them.
func (m *Model) syncDraft() {
	if m.deps.Panel == nil || m.admin.dirty {
		return
	}
	m.admin.draft, _ = m.deps.Panel.Settings()
}

func (m Model) openAdmin() (Model, tea.Cmd) {
	if m.deps.Panel == nil || !m.deps.Session.IsAdmin() {
		return m, nil
	}
	m.screen = screenAdmin
	m.input.Blur()
	m.admin.cursor = 0
	m.admin.dirty = false
	m.syncDraft()
	return m, m.adminLoadCmd()
}

func (m Model) adminLoadCmd() tea.Cmd {
	panel := m.deps.Panel
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opAdmin, err: panel.LoadAll(ctx)}
	}
}

func (m Model) addTermCmd(term string) tea.Cmd {
	panel := m.deps.Panel
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opAdmin, err: panel.AddTerm(ctx, term)}
	}
}

func (m Model) removeTermCmd(id string) tea.Cmd {
	panel := m.deps.Panel
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opAdmin, err: panel.DeleteTerm(ctx, id)}
	}
}

func (m Model) saveSettingsCmd(s model.PromptSettings) tea.Cmd {
	panel := m.deps.Panel
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: opAdmin, err: panel.SavePromptConfig(ctx, s)}
	}
}

func (m Model) updateAdmin(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.admin.adding {
		switch msg.Type {
		case tea.KeyEnter:
			term := strings.TrimSpace(m.admin.termInput.Value())
			m.admin.adding = false
			m.admin.termInput.Reset()
			m.admin.termInput.Blur()
			if term == "" {
				return m, nil
			}
			return m, m.addTermCmd(term)
		case tea.KeyEsc:
			m.admin.adding = false
			m.admin.termInput.Reset()
			m.admin.termInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.admin.termInput, cmd = m.admin.termInput.Update(msg)
		return m, cmd
	}

	terms := m.deps.Panel.Terms()
	k := m.keys
	switch {
	case key.Matches(msg, k.Close):
		if m.deps.Panel.Notice().Text != "" {
			m.deps.Panel.DismissNotice()
			return m, nil
		}
		m.screen = screenChat
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, k.Up):
		if m.admin.cursor > 0 {
			m.admin.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.admin.cursor < len(terms)-1 {
			m.admin.cursor++
		}
	case key.Matches(msg, k.AddTerm):
		m.admin.adding = true
		return m, m.admin.termInput.Focus()
	case key.Matches(msg, k.RemoveTerm):
		if len(terms) > 0 {
			m.confirm = confirmDeleteTerm
		}
	case key.Matches(msg, k.TempUp):
		m.admin.draft.Temperature = stepTemperature(m.admin.draft.Temperature, 0.1)
		m.admin.dirty = true
	case key.Matches(msg, k.TempDown):
		m.admin.draft.Temperature = stepTemperature(m.admin.draft.Temperature, -0.1)
		m.admin.dirty = true
	case key.Matches(msg, k.TokensUp):
		m.admin.draft.MaxTokens = stepTokens(m.admin.draft.MaxTokens, 100)
		m.admin.dirty = true
	case key.Matches(msg, k.TokensDown):
		m.admin.draft.MaxTokens = stepTokens(m.admin.draft.MaxTokens, -100)
		m.admin.dirty = true
	case key.Matches(msg, k.Save):
		m.admin.dirty = false
		return m, m.saveSettingsCmd(m.admin.draft)
	case key.Matches(msg, k.Reload):
		m.admin.dirty = false
		return m, m.adminLoadCmd()
	}
	return m, nil
}

func (m Model) confirmedTermRemoval() tea.Cmd {
	terms := m.deps.Panel.Terms()
	if m.admin.cursor < 0 || m.admin.cursor >= len(terms) {
		return nil
	}
	return m.removeTermCmd(terms[m.admin.cursor].ID)
}

func stepTemperature(t, delta float64) float64 {
	t = math.Round((t+delta)*10) / 10
	return math.Max(model.MinTemperature, math.Min(model.MaxTemperature, t))
}

func stepTokens(n, delta int) int {
	n += delta
	if n < model.MinMaxTokens {
		return model.MinMaxTokens
	}
	if n > model.MaxMaxTokens {
		return model.MaxMaxTokens
	}
	return n
}

func (m Model) viewAdmin() string {
	t := m.theme
	panel := m.deps.Panel
	width := m.width - 4

	var b strings.Builder
	b.WriteString(t.Header.Render("Administración"))
	if panel.Loading() {
		b.WriteString("  " + t.Muted.Render("Cargando..."))
	}
	b.WriteString("\n\n")

	if st := panel.Stats(); st != nil {
		b.WriteString(t.SectionTitle.Render("Estadísticas"))
		b.WriteString("\n")
		b.WriteString(t.StatsLine.Render(components.StatsSummary(*st)))
		b.WriteString("\n")
		for _, yc := range st.ByYear {
			b.WriteString(fmt.Sprintf("  %d  %s\n", yc.Year, t.Value.Render(util.FormatCount(yc.Count, util.DefaultLocale))))
		}
		b.WriteString("\n")
	}

	b.WriteString(t.SectionTitle.Render("Términos excluidos"))
	b.WriteString("\n")
	terms := panel.Terms()
	if len(terms) == 0 {
		b.WriteString(t.Muted.Render("Sin términos excluidos"))
		b.WriteString("\n")
	}
	for i, term := range terms {
		marker := "  "
		if i == m.admin.cursor {
			marker = t.SelectedMarker.Render("> ")
		}
		line := term.Term
		if term.Description != "" {
			line += "  " + t.Muted.Render(term.Description)
		}
		if !term.Active {
			line += "  " + t.Muted.Render("(inactivo)")
		}
		b.WriteString(marker + line + "\n")
	}
	if m.admin.adding {
		b.WriteString("\n" + t.Label.Render("Nuevo término: ") + m.admin.termInput.View() + "\n")
	}
	b.WriteString("\n")

	_, configured := panel.Settings()
	title := "Configuración del prompt"
	if !configured {
		title += " (valores por defecto)"
	}
	if m.admin.dirty {
		title += " *"
	}
	d := m.admin.draft
	b.WriteString(t.SectionTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(t.Label.Render("Temperatura: ") + t.Value.Render(fmt.Sprintf("%.1f", d.Temperature)) + "\n")
	b.WriteString(t.Label.Render("Max tokens: ") + t.Value.Render(fmt.Sprintf("%d", d.MaxTokens)) + "\n")
	for _, f := range []struct{ label, value string }{
		{"Instrucciones adicionales", d.AdditionalInstructions},
		{"Restricciones", d.Restrictions},
		{"Contexto personalizado", d.CustomContext},
	} {
		if f.value == "" {
			continue
		}
		b.WriteString(t.Label.Render(f.label+": ") + f.value + "\n")
	}
	b.WriteString(t.Muted.Render("Los textos se editan con: statchat admin prompt set --file"))
	b.WriteString("\n")

	if n := panel.Notice(); n.Text != "" {
		b.WriteString("\n")
		b.WriteString(components.RenderNotice(t, n.Text, n.Error, width))
		b.WriteString("\n")
	}
	if m.confirm == confirmDeleteTerm {
		b.WriteString("\n" + components.RenderConfirm(t, confirmRemoveTerm) + "\n")
	}

	body := t.App.Width(width).Height(m.height - 3).Render(b.String())
	return body + "\n" + components.RenderShortcuts(t, m.width, m.keys.AdminHelp()...)
}
