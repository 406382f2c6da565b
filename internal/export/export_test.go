// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/statchat/internal/model"
)

func sampleTranscript(title string) *Transcript {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	query := "SELECT COUNT(*) FROM defunciones WHERE año = 2020"
	return &Transcript{
		Conversation: model.Conversation{ID: "42", Title: title, CreatedAt: created},
		Messages: []model.Message{
			model.NewComplete("9", "¿Cuántas defunciones hubo en 2020?", "Hubo **126.000** defunciones.", &query, created),
			model.NewSystem("Contexto reiniciado", "Se reinició el contexto.", created.Add(time.Minute)),
		},
		Username:   "ana",
		ExportedAt: created.Add(time.Hour),
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript("Defunciones 2020"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := string(out)
	for _, want := range []string{
		"# Defunciones 2020",
		"## 1. Pregunta",
		"## 2. Sistema",
		"> ¿Cuántas defunciones hubo en 2020?",
		"Hubo **126.000** defunciones.",
		"```sql\nSELECT COUNT(*)",
		"generator: statchat",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExport_FrontMatterSurvivesInjection(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript("Título\ninjected: true"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	parts := strings.SplitN(string(out), "---\n", 3)
	if len(parts) != 3 {
		t.Fatalf("no front matter in output")
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		t.Fatalf("front matter is not valid YAML: %v", err)
	}
	if _, ok := fm["injected"]; ok {
		t.Error("title newline created a new front matter key")
	}
	if fm["title"] != "Título\ninjected: true" {
		t.Errorf("title = %q", fm["title"])
	}
}

func TestMarkdownExport_WithoutQueries(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeQueries = false
	out, err := NewMarkdownExporter(opts).Export(sampleTranscript("x"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), "```sql") {
		t.Error("query included although disabled")
	}
}

func TestHTMLExport_EscapesContent(t *testing.T) {
	tr := sampleTranscript("<script>alert('t')</script>")
	tr.Messages[0].Question = "<img src=x onerror=alert(1)>"
	out, err := NewHTMLExporter(nil).Export(tr)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	page := string(out)
	if strings.Contains(page, "<script>") || strings.Contains(page, "<img") {
		t.Error("unescaped markup in output")
	}
	if !strings.Contains(page, "&lt;script&gt;") {
		t.Error("expected escaped title")
	}
	if !strings.Contains(page, "<strong>126.000</strong>") {
		t.Error("bold answer text not converted")
	}
	if !strings.Contains(page, `class="language-sql"`) {
		t.Error("query block missing")
	}
	if !strings.Contains(page, `class="exchange system"`) {
		t.Error("system message not marked")
	}
}

func TestFormatContent_CodeBlock(t *testing.T) {
	got := formatContent("Antes\n\n```sql\nSELECT 1\nFROM t\n```\n\nDespués")
	if !strings.Contains(got, "<p>Antes</p>") || !strings.Contains(got, "<p>Después</p>") {
		t.Errorf("paragraphs missing: %s", got)
	}
	if !strings.Contains(got, "SELECT 1&#10;FROM t") {
		t.Errorf("code block lines not preserved: %s", got)
	}
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter().Export(sampleTranscript("Defunciones 2020"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var got Transcript
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Conversation.ID != "42" || len(got.Messages) != 2 || got.Username != "ana" {
		t.Errorf("unexpected transcript: %+v", got)
	}
}

func TestExport_EmptyTranscript(t *testing.T) {
	tr := sampleTranscript("x")
	tr.Messages = nil
	for _, format := range Formats {
		exp, err := ForFormat(format, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if _, err := exp.Export(tr); !errors.Is(err, ErrEmpty) {
			t.Errorf("%s: err = %v, want ErrEmpty", format, err)
		}
	}
}

func TestForFormat(t *testing.T) {
	if exp, err := ForFormat("MD", nil); err != nil || exp.FileExtension() != ".md" {
		t.Errorf("ForFormat(MD) = %v, %v", exp, err)
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteFile(sampleTranscript("¿Tasa/2020?"), NewMarkdownExporter(nil), dir)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("written to %s, want dir %s", path, dir)
	}
	if want := "conversacion_¿Tasa-2020-_20240301_110000.md"; filepath.Base(path) != want {
		t.Errorf("file name = %s, want %s", filepath.Base(path), want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "conversacion"},
		{"a b", "a_b"},
		{`a/b\c:d`, "a-b-c-d"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
