// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/ui/styles"
	"github.com/jeranaias/statchat/internal/util"
)

// RenderDetails draws the details modal body for one message.
func RenderDetails(theme *styles.Theme, d *model.MessageDetails, width int, md *Markdown) string {
	if d == nil {
		return theme.Muted.Render("Sin detalles")
	}
	inner := width - 6
	if inner < 30 {
		inner = 30
	}

	var b strings.Builder
	title := "Detalles de la respuesta"
	if d.ConversationTitle != "" {
		title += ": " + util.TruncateWidth(d.ConversationTitle, inner-len(title)-2)
	}
	b.WriteString(theme.ModalTitle.Render(title))
	b.WriteString("\n")
	if d.Fallback {
		b.WriteString(theme.Muted.Render("Detalles generados con la información local del mensaje."))
		b.WriteString("\n")
	}

	section := func(name string) {
		b.WriteString(theme.SectionTitle.Render(name))
		b.WriteString("\n")
	}
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(theme.Label.Render(label+": ") + theme.Value.Render(value))
		b.WriteString("\n")
	}

	section("Pregunta")
	b.WriteString(d.Question)
	b.WriteString("\n")

	section("Respuesta")
	b.WriteString(md.Render(d.Answer, inner))
	b.WriteString("\n")

	if d.Query != "" {
		section("Consulta SQL")
		b.WriteString(NewSQLBlock(d.Query, inner).Render(theme))
		b.WriteString("\n")
		b.WriteString(theme.Muted.Render("c: copiar SQL"))
		b.WriteString("\n")
	}

	if a := d.Analysis; a != nil {
		section("Análisis de la consulta")
		field("Tipo", a.Kind)
		field("Complejidad", a.Complexity)
		field("Usa JOIN", yesNo(a.UsesJoins))
		field("Usa filtros", yesNo(a.Filters))
		field("Usa agrupación", yesNo(a.Grouping))
	}

	if d.Timestamp != "" || d.QuestionLength > 0 {
		section("Análisis")
		field("Fecha", d.Timestamp)
		field("Largo de la pregunta", fmt.Sprintf("%d caracteres", d.QuestionLength))
		field("Largo de la respuesta", fmt.Sprintf("%d caracteres", d.AnswerLength))
	}

	if s := d.Stats; s != nil {
		section("Estadísticas")
		field("Tipo", s.Kind)
		field("Valor", util.FormatCount(int64(s.Value), util.DefaultLocale))
		field("Porcentaje del total", fmt.Sprintf("%.2f%%", s.PercentOfTotal))
	}

	if c := d.ContextInfo; c != nil {
		section("Contexto")
		field("Sesión", c.SessionID)
		field("Interacciones", fmt.Sprintf("%d", c.Interactions))
		if len(c.ActiveFilters) > 0 {
			keys := make([]string, 0, len(c.ActiveFilters))
			for k := range c.ActiveFilters {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				field("Filtro "+k, fmt.Sprint(c.ActiveFilters[k]))
			}
		}
		if c.Expanded {
			field("Pregunta expandida", c.ExpandedQuestion)
		}
	}

	if t := d.Trail; t != nil {
		section("Conversación")
		field("Mensajes", fmt.Sprintf("%d", t.TotalMessages))
		if !t.Started.IsZero() {
			field("Inicio", t.Started.Format("02/01/2006 15:04"))
		}
		if !t.LastMessage.IsZero() {
			field("Último mensaje", t.LastMessage.Format("02/01/2006 15:04"))
		}
	}

	if d.ModelUsed != "" || d.TokensUsed > 0 || d.ProcessingTime != "" || d.ConfidenceScore != nil {
		section("Procesamiento")
		field("Modelo", d.ModelUsed)
		if d.TokensUsed > 0 {
			field("Tokens", fmt.Sprintf("%d", d.TokensUsed))
		}
		field("Tiempo", d.ProcessingTime)
		if d.ConfidenceScore != nil {
			field("Confianza", fmt.Sprintf("%.0f%%", *d.ConfidenceScore*100))
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.Muted.Render("esc: cerrar"))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
