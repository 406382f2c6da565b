// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/ui/styles"
	"github.com/jeranaias/statchat/internal/util"
)

// RenderShortcuts draws the key hints of bindings in one status line.
func RenderShortcuts(theme *styles.Theme, width int, bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, theme.ShortcutKey.Render(h.Key)+" "+theme.ShortcutDesc.Render(h.Desc))
	}
	line := strings.Join(parts, "  ")
	if lipgloss.Width(line) > width {
		// Hints are styled, so truncate the plain text instead.
		plain := make([]string, 0, len(bindings))
		for _, b := range bindings {
			if b.Enabled() {
				plain = append(plain, b.Help().Key+" "+b.Help().Desc)
			}
		}
		line = theme.ShortcutDesc.Render(util.TruncateWidth(strings.Join(plain, "  "), width-2))
	}
	return theme.StatusBar.Width(width).Render(line)
}

// RenderNotice draws a dismissible notice line, or "" when text is empty.
func RenderNotice(theme *styles.Theme, text string, isError bool, width int) string {
	if text == "" {
		return ""
	}
	text = util.TruncateWidth(text+"  (esc)", width-2)
	if isError {
		return theme.NoticeError.Render(styles.StatusIndicators.Failed + " " + text)
	}
	return theme.NoticeSuccess.Render(styles.StatusIndicators.Complete + " " + text)
}

// RenderConfirm draws a y/n question.
func RenderConfirm(theme *styles.Theme, question string) string {
	return theme.Confirm.Render(question + "  [s/n]")
}
