// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/jeranaias/statchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`]+)`")
	boldRegex       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Export converts a transcript to HTML. All text is escaped.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	title := html.EscapeString(t.Conversation.DisplayTitle())
	theme := "dark"
	if e.options.Theme == "light" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"es\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	sb.WriteString("    <meta name=\"generator\" content=\"statchat\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", title)
	sb.WriteString("            <div class=\"metadata\">\n")
	if ts := formatTimestamp(t.Conversation.CreatedAt); ts != "" {
		fmt.Fprintf(&sb, "                <span><strong>Creada:</strong> %s</span>\n", ts)
	}
	fmt.Fprintf(&sb, "                <span><strong>Mensajes:</strong> %d</span>\n", len(t.Messages))
	if t.Username != "" {
		fmt.Fprintf(&sb, "                <span><strong>Usuario:</strong> %s</span>\n", html.EscapeString(t.Username))
	}
	sb.WriteString("            </div>\n        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		e.writeMessage(&sb, msg)
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\">Exportado desde <strong>statchat</strong> el %s</footer>\n",
		t.exportedAt().Format("02-01-2006 15:04"))
	sb.WriteString("    </div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (e *HTMLExporter) writeMessage(sb *strings.Builder, msg model.Message) {
	class := "exchange"
	switch msg.Status {
	case model.StatusFailed:
		class += " failed"
	case model.StatusSystem:
		class += " system"
	}
	fmt.Fprintf(sb, "            <section class=\"%s\">\n", class)
	sb.WriteString("                <div class=\"question\">")
	sb.WriteString(html.EscapeString(strings.TrimSpace(msg.Question)))
	if ts := formatTimestamp(msg.CreatedAt); e.options.IncludeTimestamps && ts != "" {
		fmt.Fprintf(sb, " <span class=\"timestamp\">%s</span>", ts)
	}
	sb.WriteString("</div>\n")
	sb.WriteString("                <div class=\"answer\">\n")
	sb.WriteString(formatContent(msg.AnswerText()))
	sb.WriteString("\n                </div>\n")
	if q := msg.QueryText(); e.options.IncludeQueries && q != "" {
		fmt.Fprintf(sb, "                <div class=\"code-block\"><div class=\"code-lang\">sql</div><pre><code class=\"language-sql\">%s</code></pre></div>\n",
			html.EscapeString(strings.TrimSpace(q)))
	}
	sb.WriteString("            </section>\n")
}

// formatContent turns answer markdown into escaped HTML: fenced code,
// inline code, bold and paragraphs.
func formatContent(content string) string {
	content = html.EscapeString(strings.TrimSpace(content))
	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		lang, code := parts[1], strings.TrimSpace(parts[2])
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		// Newlines inside code survive the paragraph split below.
		code = strings.ReplaceAll(code, "\n", "&#10;")
		return fmt.Sprintf("\n\n<div class=\"code-block\">%s<pre><code class=\"language-%s\">%s</code></pre></div>\n\n", label, lang, code)
	})
	content = inlineCodeRegex.ReplaceAllString(content, "<code>$1</code>")
	content = boldRegex.ReplaceAllString(content, "<strong>$1</strong>")

	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		switch {
		case para == "":
		case strings.HasPrefix(para, "<div class=\"code-block\">"):
			out = append(out, para)
		default:
			out = append(out, "<p>"+strings.ReplaceAll(para, "\n", "<br>")+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

func (e *HTMLExporter) FileExtension() string { return ".html" }

func (e *HTMLExporter) MimeType() string { return "text/html" }

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
            --bg: #1a1b26; --panel: #24283b; --text: #c0caf5; --muted: #565f89;
            --border: #414868; --accent: #7aa2f7; --danger: #f7768e; --code: #1a1b26;
        }
        .light-theme {
            --bg: #ffffff; --panel: #f7f8fa; --text: #24292e; --muted: #6a737d;
            --border: #e1e4e8; --accent: #0366d6; --danger: #d73a49; --code: #f6f8fa;
        }
        body {
            font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif;
            line-height: 1.6; color: var(--text); background: var(--bg); padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; background: var(--panel); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; border-bottom: 2px solid var(--border); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--muted); }
        .exchange { padding: 24px 32px; border-bottom: 1px solid var(--border); }
        .question { font-weight: 600; color: var(--accent); margin-bottom: 12px; }
        .timestamp { font-weight: 400; font-size: 12px; color: var(--muted); margin-left: 8px; }
        .answer p { margin-bottom: 10px; }
        .failed .answer { color: var(--danger); }
        .system .question, .system .answer { color: var(--muted); font-style: italic; }
        .code-block { background: var(--code); border: 1px solid var(--border); border-radius: 8px; margin: 12px 0; overflow-x: auto; }
        .code-lang { font-size: 12px; color: var(--muted); padding: 6px 12px; border-bottom: 1px solid var(--border); }
        pre { padding: 12px; font-family: "Fira Code", monospace; font-size: 14px; white-space: pre-wrap; }
        code { font-family: "Fira Code", monospace; }
        .footer { padding: 16px 32px; font-size: 13px; color: var(--muted); text-align: center; }
    </style>
`
