// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/statchat/internal/model"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Brand - titles, the active conversation, prompts
var Brand = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}

// BrandDeep - selected rows
var BrandDeep = lipgloss.AdaptiveColor{Light: "#CFFAFE", Dark: "#164E63"}

// Accent - admin surface, key hints
var Accent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

var Success = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
var Danger = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
var Warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#45475A"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

var QuestionBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var QuestionBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

var AnswerBubbleFg = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#E9E4F5"}
var AnswerBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

var SystemBubbleFg = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}
var SystemBubbleBorder = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}

var FailedBubbleFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}
var FailedBubbleBorder = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet holds the ASCII markers shown beside message states.
type StatusIndicatorSet struct {
	Pending  string
	Complete string
	Failed   string
	System   string
}

// StatusIndicators is the marker set used everywhere.
var StatusIndicators = StatusIndicatorSet{
	Pending:  "[ ]",
	Complete: "[OK]",
	Failed:   "[X]",
	System:   "[i]",
}

// Indicator returns the marker for a message status.
func Indicator(s model.Status) string {
	switch s {
	case model.StatusPending:
		return StatusIndicators.Pending
	case model.StatusComplete:
		return StatusIndicators.Complete
	case model.StatusFailed:
		return StatusIndicators.Failed
	case model.StatusSystem:
		return StatusIndicators.System
	default:
		return ""
	}
}
