// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/statchat/internal/model"
)

// =============================================================================
// FLEXIBLE SCALARS
// =============================================================================

// ID accepts both JSON numbers and strings. Conversation ids are UUID
// strings, message and user ids are integers.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// timeLayouts are the timestamp shapes the backend emits. Database rows come
// without a zone and are read as local time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02",
}

// Timestamp parses the backend's timestamp formats.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null or a non-string: leave zero
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTime(s)
	return nil
}

// ParseTime parses s using the backend's layouts. Unknown formats are zero.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if strings.Contains(layout, "Z07") {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeList decodes either a bare JSON array or an object wrapping the
// array under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("failed to parse list: %w", err)
		}
		return out, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	inner, ok := envelope[key]
	if !ok {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return out, nil
}

// =============================================================================
// AUTH
// =============================================================================

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      ID     `json:"user_id"`
	Role        string `json:"role,omitempty"`
}

// =============================================================================
// CHAT
// =============================================================================

type chatRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"`
}

type contextInfoWire struct {
	SessionID     ID             `json:"id_sesion"`
	ActiveFilters map[string]any `json:"contexto_activo"`
	Interactions  int            `json:"interacciones"`
}

func (c *contextInfoWire) toModel() *model.ContextInfo {
	if c == nil {
		return nil
	}
	return &model.ContextInfo{
		SessionID:     c.SessionID.String(),
		ActiveFilters: c.ActiveFilters,
		Interactions:  c.Interactions,
	}
}

// ChatReply is the backend's answer to a question.
type ChatReply struct {
	Response       string           `json:"response"`
	ConversationID ID               `json:"conversation_id"`
	SQLQuery       *string          `json:"sql_query"`
	ExpansionInfo  *string          `json:"expansion_info"`
	Context        *contextInfoWire `json:"context_info"`
	MessageID      ID               `json:"message_id"`
}

// ContextInfo merges context_info and expansion_info into the model type.
func (r *ChatReply) ContextInfo() *model.ContextInfo {
	info := r.Context.toModel()
	if r.ExpansionInfo == nil || strings.TrimSpace(*r.ExpansionInfo) == "" {
		return info
	}
	if info == nil {
		info = &model.ContextInfo{}
	}
	info.Expanded = true
	info.ExpandedQuestion = parseExpansion(*r.ExpansionInfo)
	return info
}

// parseExpansion extracts the rewritten question from
// "Pregunta expandida: 'original' → 'expanded'".
func parseExpansion(s string) string {
	if i := strings.LastIndex(s, "→"); i >= 0 {
		s = s[i+len("→"):]
	}
	return strings.Trim(strings.TrimSpace(s), `'"`)
}

type conversationWire struct {
	ID        ID        `json:"id"`
	Title     string    `json:"titulo"`
	CreatedAt Timestamp `json:"created_at"`
}

func (c conversationWire) toModel() model.Conversation {
	return model.Conversation{ID: c.ID.String(), Title: c.Title, CreatedAt: c.CreatedAt.Time}
}

type messageWire struct {
	ID        ID        `json:"id"`
	Question  string    `json:"pregunta"`
	Answer    *string   `json:"respuesta"`
	SQLQuery  *string   `json:"sql_query"`
	CreatedAt Timestamp `json:"created_at"`
}

func (m messageWire) toModel() model.Message {
	answer := ""
	if m.Answer != nil {
		answer = *m.Answer
	}
	return model.NewComplete(m.ID.String(), m.Question, answer, m.SQLQuery, m.CreatedAt.Time)
}

type detailsWire struct {
	ID             ID               `json:"id"`
	Question       string           `json:"pregunta"`
	Answer         string           `json:"respuesta"`
	SQLQuery       *string          `json:"sql_query"`
	Title          string           `json:"titulo"`
	CreatedAt      Timestamp        `json:"created_at"`
	Context        *contextInfoWire `json:"context_info"`
	Response       string           `json:"response"`
	ProcessingTime json.RawMessage  `json:"processing_time"`
	ModelUsed      string           `json:"model_used"`
	TokensUsed     int              `json:"tokens_used"`
	Confidence     *float64         `json:"confidence_score"`

	Analysis *struct {
		Timestamp      string `json:"timestamp"`
		QuestionLength int    `json:"longitud_pregunta"`
		AnswerLength   int    `json:"longitud_respuesta"`
	} `json:"analisis"`

	SQLAnalysis *struct {
		Kind       string `json:"tipo_consulta"`
		UsesJoins  bool   `json:"usa_joins"`
		Filters    bool   `json:"usa_filtros"`
		Grouping   bool   `json:"usa_agrupacion"`
		Complexity string `json:"complejidad"`
	} `json:"sql_analysis"`

	FreshData json.RawMessage `json:"datos_actualizados"`

	Stats *struct {
		Kind    string  `json:"tipo"`
		Value   float64 `json:"valor"`
		Percent float64 `json:"porcentaje_del_total"`
	} `json:"estadisticas"`

	Trail *struct {
		Total   int       `json:"total_mensajes"`
		Started Timestamp `json:"inicio_conversacion"`
		Last    Timestamp `json:"ultimo_mensaje"`
	} `json:"contexto_conversacion"`
}

func (d detailsWire) toModel() *model.MessageDetails {
	out := &model.MessageDetails{
		MessageID:         d.ID.String(),
		ConversationTitle: d.Title,
		Question:          d.Question,
		Answer:            d.Answer,
		ContextInfo:       d.Context.toModel(),
		ModelUsed:         d.ModelUsed,
		TokensUsed:        d.TokensUsed,
		ConfidenceScore:   d.Confidence,
		ProcessingTime:    rawScalar(d.ProcessingTime),
	}
	if out.Answer == "" {
		out.Answer = d.Response
	}
	if d.SQLQuery != nil && *d.SQLQuery != model.NoQuerySentinel {
		out.Query = *d.SQLQuery
	}
	if d.Analysis != nil {
		out.Timestamp = d.Analysis.Timestamp
		out.QuestionLength = d.Analysis.QuestionLength
		out.AnswerLength = d.Analysis.AnswerLength
	} else if !d.CreatedAt.IsZero() {
		out.Timestamp = d.CreatedAt.Format("02/01/2006 15:04:05")
	}
	if d.SQLAnalysis != nil {
		out.Analysis = &model.QueryAnalysis{
			Kind:       d.SQLAnalysis.Kind,
			UsesJoins:  d.SQLAnalysis.UsesJoins,
			Filters:    d.SQLAnalysis.Filters,
			Grouping:   d.SQLAnalysis.Grouping,
			Complexity: d.SQLAnalysis.Complexity,
		}
	}
	if len(d.FreshData) > 0 && d.FreshData[0] == '[' {
		var rows []map[string]any
		if err := json.Unmarshal(d.FreshData, &rows); err == nil {
			out.FreshData = rows
		}
	}
	if d.Stats != nil {
		out.Stats = &model.SingleValueStats{Kind: d.Stats.Kind, Value: d.Stats.Value, PercentOfTotal: d.Stats.Percent}
	}
	if d.Trail != nil {
		out.Trail = &model.ConversationTrail{
			TotalMessages: d.Trail.Total,
			Started:       d.Trail.Started.Time,
			LastMessage:   d.Trail.Last.Time,
		}
	}
	return out
}

// rawScalar renders a JSON scalar (string or number) as text.
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// =============================================================================
// DATASET AND CONTEXT
// =============================================================================

type statsWire struct {
	TotalDeaths  int64 `json:"total_defunciones"`
	TotalRegions int   `json:"total_regiones"`
	TotalComunas int   `json:"total_comunas"`
	// A count or the list of years, depending on the backend version.
	Years  json.RawMessage `json:"anios_disponibles"`
	Period struct {
		Start int `json:"inicio"`
		End   int `json:"fin"`
	} `json:"periodo"`
	ByYear []struct {
		Year  int   `json:"año"`
		Count int64 `json:"cantidad"`
	} `json:"por_año"`
}

func (s statsWire) toModel() model.Stats {
	out := model.Stats{
		TotalDeaths:  s.TotalDeaths,
		TotalRegions: s.TotalRegions,
		TotalComunas: s.TotalComunas,
		PeriodStart:  s.Period.Start,
		PeriodEnd:    s.Period.End,
	}
	var years []json.RawMessage
	if err := json.Unmarshal(s.Years, &years); err == nil {
		out.Years = len(years)
	} else {
		_ = json.Unmarshal(s.Years, &out.Years)
	}
	for _, y := range s.ByYear {
		out.ByYear = append(out.ByYear, model.YearCount{Year: y.Year, Count: y.Count})
	}
	return out
}

// =============================================================================
// ADMIN
// =============================================================================

type excludedTermWire struct {
	ID          ID        `json:"id"`
	Term        string    `json:"termino"`
	Description string    `json:"descripcion"`
	Active      *bool     `json:"activo"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (e excludedTermWire) toModel() model.ExcludedTerm {
	active := true
	if e.Active != nil {
		active = *e.Active
	}
	return model.ExcludedTerm{
		ID:          e.ID.String(),
		Term:        e.Term,
		Description: e.Description,
		Active:      active,
		CreatedAt:   e.CreatedAt.Time,
	}
}

type addTermRequest struct {
	Term        string `json:"termino"`
	Description string `json:"descripcion"`
}

type promptConfigRequest struct {
	Name     string               `json:"nombre"`
	Settings model.PromptSettings `json:"configuracion"`
}

type promptConfigWire struct {
	Name     string          `json:"nombre"`
	Settings json.RawMessage `json:"configuracion"`
	Active   *bool           `json:"activo"`
	Message  string          `json:"message"`
	Config   json.RawMessage `json:"config"`
}

// parsePromptConfig decodes the stored configuration. The settings may
// arrive as an object or as a JSON document inside a string; nested under
// "config" or at the top level. ok is false when nothing is stored.
func parsePromptConfig(raw json.RawMessage) (cfg model.PromptConfig, ok bool, err error) {
	var w promptConfigWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return cfg, false, fmt.Errorf("failed to parse prompt config: %w", err)
	}
	if len(bytes.TrimSpace(w.Config)) > 0 && string(bytes.TrimSpace(w.Config)) != "null" {
		return parsePromptConfig(w.Config)
	}
	settings := bytes.TrimSpace(w.Settings)
	if len(settings) == 0 || string(settings) == "null" {
		return cfg, false, nil
	}
	if settings[0] == '"' {
		var inner string
		if err := json.Unmarshal(settings, &inner); err != nil {
			return cfg, false, fmt.Errorf("failed to parse prompt settings: %w", err)
		}
		settings = []byte(inner)
	}
	parsed := model.DefaultPromptSettings()
	if err := json.Unmarshal(settings, &parsed); err != nil {
		return cfg, false, fmt.Errorf("failed to parse prompt settings: %w", err)
	}
	cfg = model.PromptConfig{Name: w.Name, Settings: parsed, Active: true}
	if w.Active != nil {
		cfg.Active = *w.Active
	}
	return cfg, true, nil
}
