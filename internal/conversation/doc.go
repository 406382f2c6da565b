// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the chat state: the list of the user's
// conversations (Registry) and the message sequence of the active one
// (Manager).
//
// Sending a question inserts a pending message before the network call and
// reconciles it by its temporary id when the answer arrives. A conversation
// without a server id gets one from the first answer, at which point the
// manager promotes it and refreshes the registry.
//
// Every operation that rebinds the manager (Load, NewConversation,
// DeleteActive) advances an epoch. Results of requests issued under an older
// epoch are dropped.
package conversation
