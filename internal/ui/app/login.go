// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/session"
	"github.com/jeranaias/statchat/internal/ui/styles"
)

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldCount
)

// loginForm is the login and registration form. Email is only shown while
// registering.
type loginForm struct {
	register bool
	fields   [fieldCount]textinput.Model
	active   int
	pending  bool
	notice   flash
}

func newLoginForm() loginForm {
	var f loginForm
	labels := [fieldCount]string{"usuario", "correo@ejemplo.cl", "contraseña"}
	for i := range f.fields {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 128
		ti.Width = 32
		ti.Prompt = ""
		f.fields[i] = ti
	}
	f.fields[fieldPassword].EchoMode = textinput.EchoPassword
	f.fields[fieldPassword].EchoCharacter = '*'
	return f
}

// visible returns the field indexes shown in the current mode, in order.
func (f loginForm) visible() []int {
	if f.register {
		return []int{fieldUsername, fieldEmail, fieldPassword}
	}
	return []int{fieldUsername, fieldPassword}
}

func (f *loginForm) focusCmd() tea.Cmd {
	for i := range f.fields {
		f.fields[i].Blur()
	}
	return f.fields[f.active].Focus()
}

func (f *loginForm) move(delta int) tea.Cmd {
	vis := f.visible()
	pos := 0
	for i, idx := range vis {
		if idx == f.active {
			pos = i
		}
	}
	pos = (pos + delta + len(vis)) % len(vis)
	f.active = vis[pos]
	return f.focusCmd()
}

// toggle switches between login and registration, keeping what was typed.
func (f *loginForm) toggle() tea.Cmd {
	f.register = !f.register
	f.notice = flash{}
	if !f.register && f.active == fieldEmail {
		f.active = fieldUsername
	}
	return f.focusCmd()
}

// lastField reports whether the cursor is on the final visible field.
func (f loginForm) lastField() bool {
	vis := f.visible()
	return f.active == vis[len(vis)-1]
}

func (f loginForm) credentials() session.Credentials {
	return session.Credentials{
		Username: strings.TrimSpace(f.fields[fieldUsername].Value()),
		Password: f.fields[fieldPassword].Value(),
	}
}

func (f loginForm) registration() session.Registration {
	return session.Registration{
		Username: strings.TrimSpace(f.fields[fieldUsername].Value()),
		Email:    strings.TrimSpace(f.fields[fieldEmail].Value()),
		Password: f.fields[fieldPassword].Value(),
	}
}

// reset clears the password, and everything else when clearAll is set.
func (f *loginForm) reset(clearAll bool) {
	f.fields[fieldPassword].Reset()
	if clearAll {
		f.fields[fieldUsername].Reset()
		f.fields[fieldEmail].Reset()
		f.active = fieldUsername
	}
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	f.fields[f.active], cmd = f.fields[f.active].Update(msg)
	return f, cmd
}

func (f loginForm) view(theme *styles.Theme, width, height int, help string) string {
	title := "Iniciar sesión"
	if f.register {
		title = "Crear cuenta"
	}
	labels := [fieldCount]string{"Usuario", "Email", "Contraseña"}

	var b strings.Builder
	b.WriteString(theme.Brand.Render("statchat"))
	b.WriteString("  ")
	b.WriteString(theme.Muted.Render("Defunciones en Chile"))
	b.WriteString("\n\n")
	b.WriteString(theme.FormTitle.Render(title))
	b.WriteString("\n\n")
	for _, idx := range f.visible() {
		label := theme.FieldLabel
		if idx == f.active {
			label = theme.FieldActive
		}
		b.WriteString(label.Render(labels[idx]))
		b.WriteString("\n")
		b.WriteString(f.fields[idx].View())
		b.WriteString("\n\n")
	}
	switch {
	case f.pending:
		b.WriteString(theme.Muted.Render("Conectando..."))
	case f.notice.text != "" && f.notice.isError:
		b.WriteString(theme.NoticeError.Render(f.notice.text))
	case f.notice.text != "":
		b.WriteString(theme.NoticeSuccess.Render(f.notice.text))
	}

	box := theme.FormBox.Render(b.String())
	page := lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Center, box)
	return page + "\n" + help
}
