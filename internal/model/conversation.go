// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/jeranaias/statchat/internal/util"
)

// TitleMaxRunes is the length of the implicit title taken from the first question.
const TitleMaxRunes = 50

// Conversation is a server-identified thread of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// TitleFromQuestion derives the implicit title: the first 50 runes.
func TitleFromQuestion(question string) string {
	return util.PrefixRunes(strings.TrimSpace(question), TitleMaxRunes)
}

// NewConversation creates the local record for a conversation the backend
// just created in response to question.
func NewConversation(id, question string, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Title:     TitleFromQuestion(question),
		CreatedAt: now,
	}
}

// DisplayTitle returns the title, or a placeholder for untitled threads.
func (c Conversation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return "Conversación sin título"
	}
	return c.Title
}
