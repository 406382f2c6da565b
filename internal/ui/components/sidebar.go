// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/ui/styles"
	"github.com/jeranaias/statchat/internal/util"
)

// Sidebar lists the user's conversations with the cursor and the active
// one marked, and a dataset summary at the bottom.
type Sidebar struct {
	Conversations []model.Conversation
	ActiveID      string
	Cursor        int
	Focused       bool
	Stats         *model.Stats
	Loading       bool
	Username      string
	Admin         bool
	Now           time.Time
}

// MoveUp moves the cursor up one row.
func (s *Sidebar) MoveUp() {
	if s.Cursor > 0 {
		s.Cursor--
	}
}

// MoveDown moves the cursor down one row.
func (s *Sidebar) MoveDown() {
	if s.Cursor < len(s.Conversations)-1 {
		s.Cursor++
	}
}

// Clamp keeps the cursor inside the list after it changes.
func (s *Sidebar) Clamp() {
	if s.Cursor >= len(s.Conversations) {
		s.Cursor = len(s.Conversations) - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// Selected returns the conversation under the cursor.
func (s Sidebar) Selected() (model.Conversation, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Conversations) {
		return model.Conversation{}, false
	}
	return s.Conversations[s.Cursor], true
}

// View renders the sidebar in a box of the given outer size.
func (s Sidebar) View(theme *styles.Theme, width, height int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	b.WriteString(theme.Brand.Render("Conversaciones"))
	b.WriteString("\n")
	b.WriteString(theme.Muted.Render(util.TruncateWidth("+ Nueva conversación (ctrl+n)", inner)))
	b.WriteString("\n\n")

	footer := s.footer(theme, inner)
	rows := height - 6 - strings.Count(footer, "\n")
	if rows < 2 {
		rows = 2
	}

	if len(s.Conversations) == 0 {
		empty := "Sin conversaciones"
		if s.Loading {
			empty = "Cargando conversaciones..."
		}
		b.WriteString(theme.Muted.Render(empty))
		b.WriteString("\n")
	}

	// Each entry takes two lines: title and date.
	visible := rows / 2
	first := 0
	if s.Cursor >= visible {
		first = s.Cursor - visible + 1
	}
	for i := first; i < len(s.Conversations) && i < first+visible; i++ {
		c := s.Conversations[i]
		title := runewidth.FillRight(util.TruncateWidth(c.DisplayTitle(), inner-2), inner-2)
		prefix := "  "
		style := theme.SidebarItem
		if c.ID == s.ActiveID {
			prefix = "* "
			style = theme.SidebarActive
		}
		if i == s.Cursor && s.Focused {
			style = theme.SidebarSelected
		}
		b.WriteString(style.Render(prefix + title))
		b.WriteString("\n")
		b.WriteString(theme.SidebarMeta.Render("  " + util.RelativeDay(c.CreatedAt, now)))
		b.WriteString("\n")
	}

	box := theme.Sidebar
	if s.Focused {
		box = theme.SidebarFocused
	}
	content := strings.TrimRight(b.String(), "\n")
	gap := height - 2 - strings.Count(content, "\n") - 1 - strings.Count(footer, "\n") - 1
	if gap > 0 {
		content += strings.Repeat("\n", gap)
	}
	return box.Width(width - 2).Render(content + "\n" + footer)
}

func (s Sidebar) footer(theme *styles.Theme, width int) string {
	var lines []string
	if s.Stats != nil {
		lines = append(lines, theme.StatsLine.Render(util.TruncateWidth(StatsSummary(*s.Stats), width)))
	}
	user := s.Username
	if user == "" {
		user = model.DefaultUsername
	}
	if s.Admin {
		user += " (admin)"
	}
	lines = append(lines, theme.Label.Render(util.TruncateWidth(user, width)))
	return strings.Join(lines, "\n")
}

// StatsSummary renders the one-line dataset summary.
func StatsSummary(st model.Stats) string {
	line := util.FormatCount(st.TotalDeaths, util.DefaultLocale) + " defunciones"
	if p := st.Period(); p != "" {
		line += " | " + p
	}
	if st.TotalRegions > 0 {
		line += " | " + util.FormatCount(int64(st.TotalRegions), util.DefaultLocale) + " regiones"
	}
	return line
}
