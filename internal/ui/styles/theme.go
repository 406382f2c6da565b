// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeLight = "light"
	ModeDark  = "dark"
)

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout
	App     lipgloss.Style
	Header  lipgloss.Style
	Brand   lipgloss.Style
	Muted   lipgloss.Style
	Divider lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarActive   lipgloss.Style
	SidebarMeta     lipgloss.Style
	StatsLine       lipgloss.Style

	// Messages
	QuestionBubble lipgloss.Style
	AnswerBubble   lipgloss.Style
	SystemBubble   lipgloss.Style
	FailedBubble   lipgloss.Style
	SelectedMarker lipgloss.Style
	Timestamp      lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputDisabled  lipgloss.Style

	// Notices
	NoticeError   lipgloss.Style
	NoticeSuccess lipgloss.Style
	Spinner       lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Overlays
	Modal        lipgloss.Style
	ModalTitle   lipgloss.Style
	SectionTitle lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style
	Confirm      lipgloss.Style
	CodeBlock    lipgloss.Style
	CodeLineNum  lipgloss.Style

	// Forms
	FormBox     lipgloss.Style
	FormTitle   lipgloss.Style
	FieldLabel  lipgloss.Style
	FieldActive lipgloss.Style
}

// NewTheme creates a theme for mode ("auto", "light" or "dark").
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ModeLight:
		isDark = false
	case ModeDark:
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().Bold(true).Foreground(Brand)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Divider = lipgloss.NewStyle().Foreground(Overlay)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(Brand)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(BrandDeep).
		Bold(true)

	t.SidebarActive = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatsLine = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.QuestionBubble = lipgloss.NewStyle().
		Foreground(QuestionBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(QuestionBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AnswerBubble = lipgloss.NewStyle().
		Foreground(AnswerBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AnswerBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(SystemBubbleBorder).
		Padding(0, 1).
		Align(lipgloss.Center)

	t.FailedBubble = lipgloss.NewStyle().
		Foreground(FailedBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(FailedBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.SelectedMarker = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Brand).
		Bold(true)

	t.InputDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Notices
	t.NoticeError = lipgloss.NewStyle().
		Foreground(Danger).
		Bold(true).
		Padding(0, 1)

	t.NoticeSuccess = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().Foreground(Accent)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Overlays
	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2)

	t.ModalTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent).
		MarginBottom(1)

	t.SectionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand).
		MarginTop(1)

	t.Label = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Value = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)

	t.Confirm = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Warning).
		Padding(0, 1)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(3).
		Align(lipgloss.Right).
		MarginRight(1)

	// Forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Brand).
		Padding(1, 3)

	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Brand).
		MarginBottom(1)

	t.FieldLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.FieldActive = lipgloss.NewStyle().Foreground(Brand).Bold(true)
}

// ChromaStyle returns the chroma style name matching the background.
func (t *Theme) ChromaStyle() string {
	if t.IsDark {
		return "monokai"
	}
	return "github"
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
