// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/jeranaias/statchat/internal/model"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	if !dark.IsDark {
		t.Error("dark mode should report a dark background")
	}
	if dark.ChromaStyle() != "monokai" || dark.GlamourStyle() != "dark" {
		t.Errorf("dark styles = %q/%q", dark.ChromaStyle(), dark.GlamourStyle())
	}

	light := NewTheme(ModeLight)
	if light.IsDark {
		t.Error("light mode should report a light background")
	}
	if light.GlamourStyle() != "light" {
		t.Errorf("light glamour style = %q", light.GlamourStyle())
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ModeDark)
	for name, render := range map[string]func(...string) string{
		"QuestionBubble": theme.QuestionBubble.Render,
		"AnswerBubble":   theme.AnswerBubble.Render,
		"SystemBubble":   theme.SystemBubble.Render,
		"FailedBubble":   theme.FailedBubble.Render,
		"Sidebar":        theme.Sidebar.Render,
		"Modal":          theme.Modal.Render,
	} {
		if out := render("texto"); !strings.Contains(out, "texto") {
			t.Errorf("%s lost its content: %q", name, out)
		}
	}
}

func TestIndicator_CoversEveryStatus(t *testing.T) {
	for _, s := range []model.Status{model.StatusPending, model.StatusComplete, model.StatusFailed, model.StatusSystem} {
		if Indicator(s) == "" {
			t.Errorf("no indicator for %s", s)
		}
	}
	if Indicator(model.Status("bogus")) != "" {
		t.Error("unknown status should have no indicator")
	}
}
