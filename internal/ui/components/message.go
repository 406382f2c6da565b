// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/ui/styles"
)

// PendingText is shown in place of an answer still being computed.
const PendingText = "Procesando tu pregunta..."

// MessageOptions controls how one message is drawn.
type MessageOptions struct {
	Width        int
	Index        int
	Selected     bool
	ShowSQL      bool
	SpinnerFrame string
	Markdown     *Markdown
}

// RenderMessage draws a question bubble followed by its answer bubble.
// System messages are a single centered notice.
func RenderMessage(theme *styles.Theme, msg model.Message, opts MessageOptions) string {
	width := opts.Width
	if width < 30 {
		width = 30
	}
	inner := width - 8

	marker := "  "
	if opts.Selected {
		marker = theme.SelectedMarker.Render("> ")
	}

	if msg.Status == model.StatusSystem {
		body := theme.Value.Render(msg.Question) + "\n" + msg.AnswerText()
		return marker + theme.SystemBubble.Width(inner).Render(body)
	}

	header := theme.Label.Render(fmt.Sprintf("#%d", opts.Index))
	if !msg.CreatedAt.IsZero() {
		header += " " + theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	}
	question := theme.QuestionBubble.Width(inner).Render(msg.Question)

	var answer string
	switch msg.Status {
	case model.StatusPending:
		frame := opts.SpinnerFrame
		if frame == "" {
			frame = styles.Indicator(model.StatusPending)
		}
		answer = theme.AnswerBubble.Width(inner).Render(theme.Spinner.Render(frame) + " " + theme.Muted.Render(PendingText))
	case model.StatusFailed:
		answer = theme.FailedBubble.Width(inner).Render(styles.Indicator(model.StatusFailed) + " " + msg.AnswerText())
	case model.StatusComplete:
		answer = theme.AnswerBubble.Width(inner).Render(completeBody(theme, msg, inner-4, opts))
	default:
		answer = theme.AnswerBubble.Width(inner).Render(msg.AnswerText())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		marker+header,
		indent(question, "  "),
		indent(answer, "  "),
	)
}

// completeBody renders an answer with optional query and expansion note.
func completeBody(theme *styles.Theme, msg model.Message, width int, opts MessageOptions) string {
	var parts []string
	if info := msg.ContextInfo; info != nil && info.Expanded && info.ExpandedQuestion != "" {
		parts = append(parts, theme.Muted.Render("Pregunta expandida: "+info.ExpandedQuestion))
	}
	parts = append(parts, opts.Markdown.Render(msg.AnswerText(), width))
	if opts.ShowSQL && msg.GeneratedQuery != nil {
		parts = append(parts, NewSQLBlock(*msg.GeneratedQuery, width).Render(theme))
	}
	return strings.Join(parts, "\n")
}

// RenderMessages draws a whole sequence. selected is the index of the
// highlighted message, or -1.
func RenderMessages(theme *styles.Theme, msgs []model.Message, selected int, opts MessageOptions) string {
	if len(msgs) == 0 {
		return theme.Muted.Render("Haz una pregunta sobre las defunciones registradas en Chile.")
	}
	blocks := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		o := opts
		o.Index = i + 1
		o.Selected = i == selected
		blocks = append(blocks, RenderMessage(theme, msg, o))
	}
	return strings.Join(blocks, "\n\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
