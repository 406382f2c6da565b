// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the statchat TUI.

# Colors (colors.go)

All colors are lipgloss.AdaptiveColor values, so they follow the terminal's
light or dark background:

	Brand, Accent     - headers, selection, prompts
	Success, Danger   - outcome notices, failed messages
	Warning           - system messages, confirmations
	Surface*, Text*   - backgrounds and text hierarchy

Message bubbles have their own tokens per status: QuestionBubble*,
AnswerBubble*, SystemBubble* and FailedBubble*.

# Theme (theme.go)

NewTheme builds every style once. The mode argument comes from the ui.theme
setting: "auto" asks the terminal, "light" and "dark" force a background.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.Sidebar.Render(list)

# Status indicators

Message states carry an ASCII marker next to their color so they stay
readable without color (NO_COLOR, monochrome terminals).
*/
package styles
