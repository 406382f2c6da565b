// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// =============================================================================
// DATASET STATS
// =============================================================================

// YearCount is the number of records for one year.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

// Stats summarizes the dataset. It is read-only.
type Stats struct {
	TotalDeaths  int64       `json:"total_deaths"`
	TotalRegions int         `json:"total_regions"`
	TotalComunas int         `json:"total_comunas,omitempty"`
	Years        int         `json:"years_available,omitempty"`
	PeriodStart  int         `json:"period_start"`
	PeriodEnd    int         `json:"period_end"`
	ByYear       []YearCount `json:"by_year,omitempty"`
}

// Period renders the covered years, e.g. "2014 - 2023".
func (s Stats) Period() string {
	if s.PeriodStart == 0 && s.PeriodEnd == 0 {
		return ""
	}
	return fmt.Sprintf("%d - %d", s.PeriodStart, s.PeriodEnd)
}

// ContextState is the backend's per-user conversational context.
type ContextState struct {
	SessionID     string         `json:"session_id"`
	ActiveFilters map[string]any `json:"active_filters"`
	Interactions  int            `json:"interactions"`
}

// =============================================================================
// EXCLUDED TERMS
// =============================================================================

// ExcludedTerm is a word the backend refuses to answer questions about.
type ExcludedTerm struct {
	ID          string    `json:"id"`
	Term        string    `json:"term"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// =============================================================================
// PROMPT SETTINGS
// =============================================================================

// PromptConfigName is the name every saved configuration is stored under.
const PromptConfigName = "Configuración Principal"

// DefaultRestrictions is the restriction text of a fresh installation.
const DefaultRestrictions = "No proporcionar información médica específica. Enfocarse solo en estadísticas de defunciones."

// Bounds for prompt settings.
const (
	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 2000
)

// ErrInvalidSettings wraps every prompt settings validation failure.
var ErrInvalidSettings = errors.New("invalid prompt settings")

// PromptSettings tunes how the backend generates answers.
type PromptSettings struct {
	Temperature            float64 `json:"temperatura" yaml:"temperatura"`
	MaxTokens              int     `json:"max_tokens" yaml:"max_tokens"`
	AdditionalInstructions string  `json:"instrucciones_adicionales" yaml:"instrucciones_adicionales"`
	Restrictions           string  `json:"restricciones" yaml:"restricciones"`
	CustomContext          string  `json:"contexto_personalizado" yaml:"contexto_personalizado"`
}

// DefaultPromptSettings returns the settings shown before any are saved.
func DefaultPromptSettings() PromptSettings {
	return PromptSettings{
		Temperature:  0.1,
		MaxTokens:    1000,
		Restrictions: DefaultRestrictions,
	}
}

// Validate checks the bounds. Temperature moves in steps of 0.1.
func (p PromptSettings) Validate() error {
	if math.IsNaN(p.Temperature) || p.Temperature < MinTemperature || p.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperatura debe estar entre %.1f y %.1f", ErrInvalidSettings, MinTemperature, MaxTemperature)
	}
	if p.MaxTokens < MinMaxTokens || p.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max_tokens debe estar entre %d y %d", ErrInvalidSettings, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// Normalize rounds the temperature to the 0.1 step.
func (p PromptSettings) Normalize() PromptSettings {
	p.Temperature = math.Round(p.Temperature*10) / 10
	return p
}

// PromptConfig is a named, stored PromptSettings.
type PromptConfig struct {
	Name     string         `json:"name"`
	Settings PromptSettings `json:"settings"`
	Active   bool           `json:"active"`
}
