// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/statchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown with YAML front matter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontMatter is encoded with yaml so titles never break the header.
type frontMatter struct {
	Title          string `yaml:"title"`
	ConversationID string `yaml:"conversation_id,omitempty"`
	Date           string `yaml:"date,omitempty"`
	Messages       int    `yaml:"messages"`
	User           string `yaml:"user,omitempty"`
	Exported       string `yaml:"exported"`
	Generator      string `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	title := t.Conversation.DisplayTitle()

	fm := frontMatter{
		Title:          title,
		ConversationID: t.Conversation.ID,
		Messages:       len(t.Messages),
		User:           t.Username,
		Exported:       t.exportedAt().Format(time.RFC3339),
		Generator:      "statchat",
	}
	if !t.Conversation.CreatedAt.IsZero() {
		fm.Date = t.Conversation.CreatedAt.Format(time.RFC3339)
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, msg := range t.Messages {
		e.writeMessage(&sb, i+1, msg)
		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n---\n\n*Exportado desde statchat el %s*\n", t.exportedAt().Format("02-01-2006 15:04"))
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, n int, msg model.Message) {
	label := "Pregunta"
	if msg.Status == model.StatusSystem {
		label = "Sistema"
	}
	fmt.Fprintf(sb, "## %d. %s", n, label)
	if ts := formatTimestamp(msg.CreatedAt); e.options.IncludeTimestamps && ts != "" {
		fmt.Fprintf(sb, " <sub>%s</sub>", ts)
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(msg.Question), "\n", "\n> "))

	answer := strings.TrimSpace(msg.AnswerText())
	if msg.Status == model.StatusFailed {
		answer = "**[X]** " + answer
	}
	sb.WriteString(answer)
	sb.WriteString("\n\n")

	if q := msg.QueryText(); e.options.IncludeQueries && q != "" {
		sb.WriteString("```sql\n")
		sb.WriteString(strings.TrimSpace(q))
		sb.WriteString("\n```\n\n")
	}
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }

func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
