// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefixes of locally generated message ids.
const (
	TempIDPrefix   = "tmp-"
	SystemIDPrefix = "sys-"
)

// NoQuerySentinel is what the backend stores when it could not build a query.
const NoQuerySentinel = "NO_SE_PUEDE_GENERAR"

// ErrInvalidTransition is returned when a message is moved to a state the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid message status transition")

// =============================================================================
// CONTEXT INFO
// =============================================================================

// ContextInfo is the backend's conversational context attached to an answer.
type ContextInfo struct {
	SessionID     string         `json:"session_id,omitempty"`
	ActiveFilters map[string]any `json:"active_filters,omitempty"`
	Interactions  int            `json:"interactions"`

	// Expanded is set when the backend rewrote a follow-up question using
	// earlier context. ExpandedQuestion is the rewritten text.
	Expanded         bool   `json:"expanded,omitempty"`
	ExpandedQuestion string `json:"expanded_question,omitempty"`
}

// Clone returns a deep copy (filters included).
func (c *ContextInfo) Clone() *ContextInfo {
	if c == nil {
		return nil
	}
	out := *c
	if c.ActiveFilters != nil {
		out.ActiveFilters = make(map[string]any, len(c.ActiveFilters))
		for k, v := range c.ActiveFilters {
			out.ActiveFilters[k] = v
		}
	}
	return &out
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one question/answer exchange.
//
// Invariants: a Pending message has no Answer. Complete and Failed messages
// have one. System messages are never sent to the backend.
type Message struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Answer         *string      `json:"answer,omitempty"`
	GeneratedQuery *string      `json:"sql_query,omitempty"`
	ContextInfo    *ContextInfo `json:"context_info,omitempty"`
	Status         Status       `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewTempID returns a fresh client-side message id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// NewPending creates the optimistic message for a question being sent.
func NewPending(question string, now time.Time) Message {
	return Message{
		ID:        NewTempID(),
		Question:  question,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// NewSystem creates a local notice message.
func NewSystem(question, answer string, now time.Time) Message {
	return Message{
		ID:        SystemIDPrefix + uuid.NewString(),
		Question:  question,
		Answer:    &answer,
		Status:    StatusSystem,
		CreatedAt: now,
	}
}

// NewComplete creates an answered message, as loaded from history.
func NewComplete(id, question, answer string, query *string, createdAt time.Time) Message {
	return Message{
		ID:             id,
		Question:       question,
		Answer:         &answer,
		GeneratedQuery: normalizeQuery(query),
		Status:         StatusComplete,
		CreatedAt:      createdAt,
	}
}

// Complete reconciles a pending message with the backend's answer.
// serverID replaces the temporary id when the backend supplied one.
func (m *Message) Complete(serverID, answer string, query *string, info *ContextInfo) error {
	if !m.Status.CanTransition(StatusComplete) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusComplete)
	}
	if serverID != "" {
		m.ID = serverID
	}
	m.Answer = &answer
	m.GeneratedQuery = normalizeQuery(query)
	m.ContextInfo = info
	m.Status = StatusComplete
	return nil
}

// Fail marks a pending message failed with a fixed answer text.
func (m *Message) Fail(answer string) error {
	if !m.Status.CanTransition(StatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, StatusFailed)
	}
	m.Answer = &answer
	m.Status = StatusFailed
	return nil
}

// IsTemporary reports whether the id was generated locally.
func (m Message) IsTemporary() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix) || strings.HasPrefix(m.ID, SystemIDPrefix)
}

// AnswerText returns the answer or "".
func (m Message) AnswerText() string {
	if m.Answer == nil {
		return ""
	}
	return *m.Answer
}

// QueryText returns the generated query or "".
func (m Message) QueryText() string {
	if m.GeneratedQuery == nil {
		return ""
	}
	return *m.GeneratedQuery
}

// Clone returns a copy that shares no pointers with m.
func (m Message) Clone() Message {
	out := m
	if m.Answer != nil {
		a := *m.Answer
		out.Answer = &a
	}
	if m.GeneratedQuery != nil {
		q := *m.GeneratedQuery
		out.GeneratedQuery = &q
	}
	out.ContextInfo = m.ContextInfo.Clone()
	return out
}

// normalizeQuery drops empty queries and the backend's "no query" sentinel.
func normalizeQuery(q *string) *string {
	if q == nil {
		return nil
	}
	s := strings.TrimSpace(*q)
	if s == "" || s == NoQuerySentinel {
		return nil
	}
	return &s
}
