// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the statchat TUI: message
// bubbles, the conversation sidebar, the details modal, highlighted SQL,
// markdown answers and the pending spinner.
//
// Components are pure renderers over model values; none of them holds
// business state.
package components
