// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the full-screen terminal UI.
//
// The model holds no business rules. It renders the conversation manager's
// snapshot, the registry's list and the admin panel, and turns key presses
// into calls on them. Results and state changes arrive as tea.Msg values:
//
//	Session.Subscribe   -> sessionChangedMsg
//	Manager.Subscribe   -> conversationEventMsg
//	Registry.Subscribe  -> conversationEventMsg
//	Panel.OnChange      -> adminChangedMsg
//	Client hook (401)   -> sessionExpiredMsg
//
// Run wires those subscriptions to Program.Send and blocks until the user
// quits.
package app
