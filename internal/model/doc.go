// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the domain types shared by the client packages.
//
// # Key Types
//
//   - Session: the authenticated identity (token, user id, username)
//   - Conversation: a server-identified thread with a title
//   - Message: one question/answer exchange with a lifecycle Status
//   - MessageDetails: the extended view shown in the detail modal
//   - Stats, ExcludedTerm, PromptSettings: admin and dataset types
//
// # Message Lifecycle
//
// A message sent by the user starts Pending with a temporary id. It moves
// to Complete when the backend answers or Failed when it does not. System
// messages are created directly in the System state. No other transitions
// exist.
//
//	msg := model.NewPending("¿Cuántas defunciones hubo en 2020?", time.Now())
//	err := msg.Complete("", answer, query, info)
package model
