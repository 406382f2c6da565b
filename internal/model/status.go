// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the lifecycle state of a message.
type Status string

const (
	// StatusPending is a question sent and awaiting its answer.
	StatusPending Status = "pending"
	// StatusComplete is an answered question.
	StatusComplete Status = "complete"
	// StatusFailed is a question whose request failed.
	StatusFailed Status = "failed"
	// StatusSystem is a locally generated notice, never sent to the backend.
	StatusSystem Status = "system"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Label returns the Spanish label shown next to a message.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Procesando"
	case StatusComplete:
		return "Respondido"
	case StatusFailed:
		return "Error"
	case StatusSystem:
		return "Sistema"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed, StatusSystem:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine allows s -> next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusComplete || next == StatusFailed
	case StatusComplete, StatusFailed, StatusSystem:
		return false
	default:
		return false
	}
}
