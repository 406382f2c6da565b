// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/statchat/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a highlighted block of code with line numbers.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
	// Style is a chroma style name; empty picks one from the theme.
	Style string
}

// NewSQLBlock creates a code block for a generated query.
func NewSQLBlock(query string, maxWidth int) CodeBlock {
	return CodeBlock{Language: "sql", Code: query, MaxWidth: maxWidth}
}

// Render renders the block with theme framing.
func (c CodeBlock) Render(theme *styles.Theme) string {
	code := strings.TrimSpace(c.Code)
	style := c.Style
	if style == "" {
		style = theme.ChromaStyle()
	}

	lines := strings.Split(Highlight(code, c.Language, style), "\n")
	rendered := make([]string, 0, len(lines))
	for i, line := range lines {
		rendered = append(rendered, theme.CodeLineNum.Render(strconv.Itoa(i+1))+line)
	}

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	return theme.CodeBlock.MaxWidth(maxWidth).Render(strings.Join(rendered, "\n"))
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlight applies ANSI syntax highlighting. It returns code unchanged when
// highlighting fails.
func Highlight(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
