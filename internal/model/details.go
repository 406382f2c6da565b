// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// QueryAnalysis is the backend's static analysis of a generated query.
type QueryAnalysis struct {
	Kind       string `json:"kind"`
	UsesJoins  bool   `json:"uses_joins"`
	Filters    bool   `json:"filters"`
	Grouping   bool   `json:"grouping"`
	Complexity string `json:"complexity"`
}

// AnalyzeQuery classifies a query the same way the backend does, for
// details built locally.
func AnalyzeQuery(sql string) *QueryAnalysis {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	a := &QueryAnalysis{
		UsesJoins: strings.Contains(sql, "JOIN"),
		Filters:   strings.Contains(sql, "WHERE"),
		Grouping:  strings.Contains(sql, "GROUP BY"),
	}
	switch {
	case strings.Contains(sql, "COUNT("):
		a.Kind = "COUNT"
	case strings.Contains(sql, "SELECT"):
		a.Kind = "SELECT"
	default:
		a.Kind = "OTRA"
	}
	switch joins := strings.Count(sql, "JOIN"); {
	case joins > 1:
		a.Complexity = "ALTA"
	case joins == 1:
		a.Complexity = "MEDIA"
	default:
		a.Complexity = "BÁSICA"
	}
	return a
}

// ConversationTrail summarizes the thread a message belongs to.
type ConversationTrail struct {
	TotalMessages int       `json:"total_messages"`
	Started       time.Time `json:"started"`
	LastMessage   time.Time `json:"last_message"`
}

// SingleValueStats describes a one-cell numeric result.
type SingleValueStats struct {
	Kind           string  `json:"kind"`
	Value          float64 `json:"value"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// MessageDetails is the extended view of one message.
type MessageDetails struct {
	MessageID         string             `json:"message_id"`
	ConversationTitle string             `json:"conversation_title,omitempty"`
	Question          string             `json:"question"`
	Answer            string             `json:"answer"`
	Query             string             `json:"sql_query,omitempty"`
	ContextInfo       *ContextInfo       `json:"context_info,omitempty"`
	Timestamp         string             `json:"timestamp,omitempty"`
	QuestionLength    int                `json:"question_length,omitempty"`
	AnswerLength      int                `json:"answer_length,omitempty"`
	Analysis          *QueryAnalysis     `json:"sql_analysis,omitempty"`
	FreshData         []map[string]any   `json:"fresh_data,omitempty"`
	Stats             *SingleValueStats  `json:"stats,omitempty"`
	Trail             *ConversationTrail `json:"trail,omitempty"`

	ProcessingTime  string   `json:"processing_time,omitempty"`
	ModelUsed       string   `json:"model_used,omitempty"`
	TokensUsed      int      `json:"tokens_used,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`

	// Fallback is set when the details were built from the local message
	// because the backend could not provide them.
	Fallback bool `json:"fallback"`
}

// FallbackDetails builds details from what the client already knows.
func FallbackDetails(m Message) *MessageDetails {
	answer := m.AnswerText()
	return &MessageDetails{
		MessageID:      m.ID,
		Question:       m.Question,
		Answer:         answer,
		Query:          m.QueryText(),
		ContextInfo:    m.ContextInfo.Clone(),
		Timestamp:      m.CreatedAt.Format("02/01/2006 15:04:05"),
		QuestionLength: len([]rune(m.Question)),
		AnswerLength:   len([]rune(answer)),
		Analysis:       AnalyzeQuery(m.QueryText()),
		Fallback:       true,
	}
}
