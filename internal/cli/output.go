// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/ui/components"
	"github.com/jeranaias/statchat/internal/ui/styles"
)

// printer writes human output, colored only when the writer is a terminal.
type printer struct {
	w      io.Writer
	color  bool
	width  int
	md     *components.Markdown
	title  lipgloss.Style
	muted  lipgloss.Style
	label  lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(ColorProfile(w))
	width := DefaultTerminalWidth
	if isTerminalWriter(w) {
		width = TerminalWidth()
	}
	return &printer{
		w:      w,
		color:  ColorsEnabled(w),
		width:  width,
		md:     components.NewMarkdown(MarkdownStyle(w)),
		title:  r.NewStyle().Foreground(styles.Brand).Bold(true),
		muted:  r.NewStyle().Foreground(styles.TextMuted),
		label:  r.NewStyle().Foreground(styles.TextSecondary),
		ok:     r.NewStyle().Foreground(styles.Success),
		failed: r.NewStyle().Foreground(styles.Danger),
	}
}

func (p *printer) Title(s string) {
	fmt.Fprintln(p.w, p.title.Render(s))
}

func (p *printer) Muted(s string) {
	fmt.Fprintln(p.w, p.muted.Render(s))
}

func (p *printer) Success(s string) {
	fmt.Fprintln(p.w, p.ok.Render(styles.StatusIndicators.Complete)+" "+s)
}

func (p *printer) Failure(s string) {
	fmt.Fprintln(p.w, p.failed.Render(styles.StatusIndicators.Failed)+" "+s)
}

// Field prints "label: value", skipping empty values.
func (p *printer) Field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render(label+":"), value)
}

// Markdown prints an answer rendered for the terminal.
func (p *printer) Markdown(text string) {
	fmt.Fprintln(p.w, p.md.Render(text, p.width-4))
}

// SQL prints a query, highlighted when colors are on.
func (p *printer) SQL(query string) {
	if p.color {
		query = components.Highlight(query, "sql", "monokai")
	}
	fmt.Fprintln(p.w, query)
}

// Table prints rows aligned in columns.
func (p *printer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
