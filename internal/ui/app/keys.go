// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings of every screen.
type KeyMap struct {
	// Chat
	Send     key.Binding
	NewChat  key.Binding
	Restart  key.Binding
	Delete   key.Binding
	Details  key.Binding
	Focus    key.Binding
	Admin    key.Binding
	Logout   key.Binding
	ShowSQL  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Close    key.Binding
	Quit     key.Binding

	// Modal and confirm
	Copy key.Binding
	Yes  key.Binding
	No   key.Binding

	// Login form
	NextField  key.Binding
	PrevField  key.Binding
	SwitchForm key.Binding

	// Admin pane
	AddTerm    key.Binding
	RemoveTerm key.Binding
	TempUp     key.Binding
	TempDown   key.Binding
	TokensUp   key.Binding
	TokensDown key.Binding
	Save       key.Binding
	Reload     key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "enviar"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "nueva"),
		),
		Restart: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reiniciar contexto"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "eliminar"),
		),
		Details: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "detalles"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "foco"),
		),
		Admin: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "admin"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "cerrar sesión"),
		),
		ShowSQL: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "mostrar SQL"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "subir"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "bajar"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "página arriba"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "página abajo"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cerrar"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "salir"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copiar SQL"),
		),
		Yes: key.NewBinding(
			key.WithKeys("s", "S", "y", "Y"),
			key.WithHelp("s", "sí"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "siguiente campo"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "campo anterior"),
		),
		SwitchForm: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "login/registro"),
		),
		AddTerm: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "agregar término"),
		),
		RemoveTerm: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "eliminar término"),
		),
		TempUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "temperatura"),
		),
		TempDown: key.NewBinding(
			key.WithKeys("-"),
		),
		TokensUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[/]", "max tokens"),
		),
		TokensDown: key.NewBinding(
			key.WithKeys("["),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "guardar"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "recargar"),
		),
	}
}

// ChatHelp returns the bindings shown in the chat status bar.
func (k KeyMap) ChatHelp(admin bool) []key.Binding {
	b := []key.Binding{k.Send, k.NewChat, k.Restart, k.Delete, k.Details, k.Focus, k.ShowSQL}
	if admin {
		b = append(b, k.Admin)
	}
	return append(b, k.Logout, k.Quit)
}

// LoginHelp returns the bindings shown on the login screen.
func (k KeyMap) LoginHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextField, k.SwitchForm, k.Quit}
}

// AdminHelp returns the bindings shown in the admin pane.
func (k KeyMap) AdminHelp() []key.Binding {
	return []key.Binding{k.AddTerm, k.RemoveTerm, k.TempUp, k.TokensUp, k.Save, k.Reload, k.Close}
}
