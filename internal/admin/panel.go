// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/statchat/internal/logging"
	"github.com/jeranaias/statchat/internal/model"
)

// Notice texts.
const (
	MsgTermAdded       = "Término agregado exitosamente"
	MsgTermDeleted     = "Término eliminado exitosamente"
	MsgConfigSaved     = "Configuración guardada exitosamente"
	MsgAddTermFailed   = "Error agregando término excluido"
	MsgDelTermFailed   = "Error eliminando término"
	MsgSaveFailed      = "Error guardando configuración"
	MsgLoadFailed      = "Error cargando datos de administración"
	defaultTermAuthor  = "admin"
	termDescriptionFmt = "Término agregado por %s"
)

// ErrEmptyTerm indicates an excluded term that is blank after trimming.
var ErrEmptyTerm = errors.New("excluded term is empty")

// Service is the backend's admin surface.
type Service interface {
	ExcludedTerms(ctx context.Context) ([]model.ExcludedTerm, error)
	AddExcludedTerm(ctx context.Context, term, description string) error
	DeleteExcludedTerm(ctx context.Context, id string) error
	PromptConfig(ctx context.Context) (model.PromptConfig, bool, error)
	UpdatePromptConfig(ctx context.Context, settings model.PromptSettings) error
}

// Notice is an outcome message. Error distinguishes failures from successes.
type Notice struct {
	Text  string
	Error bool
}

// Panel is the admin pane's state. It is safe for concurrent use.
type Panel struct {
	mu         sync.Mutex
	svc        Service
	stats      *StatsTracker
	author     func() string
	terms      []model.ExcludedTerm
	settings   model.PromptSettings
	configured bool
	loading    bool
	notice     Notice
	logger     *slog.Logger

	onChange func()
}

// NewPanel creates a panel showing default settings until LoadAll runs.
// author returns the username recorded on added terms; stats may be nil.
func NewPanel(svc Service, stats *StatsTracker, author func() string, logger *slog.Logger) *Panel {
	logger = logging.OrDefault(logger)
	if author == nil {
		author = func() string { return defaultTermAuthor }
	}
	return &Panel{
		svc:      svc,
		stats:    stats,
		author:   author,
		settings: model.DefaultPromptSettings(),
		logger:   logger,
	}
}

// OnChange registers fn to run after any state change.
func (p *Panel) OnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// LoadAll loads terms, prompt configuration and statistics concurrently.
// Parts that fail keep their previous values.
func (p *Panel) LoadAll(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	var g errgroup.Group
	g.Go(func() error { return p.loadTerms(ctx) })
	g.Go(func() error { return p.loadPromptConfig(ctx) })
	if p.stats != nil {
		g.Go(func() error { return p.stats.Refresh(ctx) })
	}

	if err := g.Wait(); err != nil {
		p.setNotice(Notice{Text: MsgLoadFailed, Error: true})
		return err
	}
	return nil
}

// AddTerm adds an excluded term and reloads the list.
func (p *Panel) AddTerm(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return ErrEmptyTerm
	}
	author := p.author()
	if author == "" {
		author = defaultTermAuthor
	}

	p.setLoading(true)
	defer p.setLoading(false)

	if err := p.svc.AddExcludedTerm(ctx, term, fmt.Sprintf(termDescriptionFmt, author)); err != nil {
		p.logger.Warn("failed to add excluded term", "error", err)
		p.setNotice(Notice{Text: MsgAddTermFailed, Error: true})
		return fmt.Errorf("failed to add excluded term: %w", err)
	}
	p.logger.Info("excluded term added", "term", term)
	p.setNotice(Notice{Text: MsgTermAdded})
	return p.loadTerms(ctx)
}

// DeleteTerm removes an excluded term and reloads the list.
func (p *Panel) DeleteTerm(ctx context.Context, id string) error {
	p.setLoading(true)
	defer p.setLoading(false)

	if err := p.svc.DeleteExcludedTerm(ctx, id); err != nil {
		p.logger.Warn("failed to delete excluded term", "term_id", id, "error", err)
		p.setNotice(Notice{Text: MsgDelTermFailed, Error: true})
		return fmt.Errorf("failed to delete excluded term: %w", err)
	}
	p.logger.Info("excluded term deleted", "term_id", id)
	p.setNotice(Notice{Text: MsgTermDeleted})
	return p.loadTerms(ctx)
}

// SavePromptConfig validates and stores settings, then reloads them.
func (p *Panel) SavePromptConfig(ctx context.Context, settings model.PromptSettings) error {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		p.setNotice(Notice{Text: invalidSettingsText(err), Error: true})
		return err
	}

	p.setLoading(true)
	defer p.setLoading(false)

	if err := p.svc.UpdatePromptConfig(ctx, settings); err != nil {
		p.logger.Warn("failed to save prompt config", "error", err)
		p.setNotice(Notice{Text: MsgSaveFailed, Error: true})
		return fmt.Errorf("failed to save prompt config: %w", err)
	}
	p.mu.Lock()
	p.settings = settings
	p.configured = true
	p.mu.Unlock()

	p.logger.Info("prompt config saved")
	p.setNotice(Notice{Text: MsgConfigSaved})
	return p.loadPromptConfig(ctx)
}

// Terms returns a copy of the excluded terms.
func (p *Panel) Terms() []model.ExcludedTerm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ExcludedTerm(nil), p.terms...)
}

// Settings returns the current prompt settings and whether the backend has
// a stored configuration.
func (p *Panel) Settings() (model.PromptSettings, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings, p.configured
}

// Stats returns the tracker's statistics, or nil.
func (p *Panel) Stats() *model.Stats {
	if p.stats == nil {
		return nil
	}
	return p.stats.Stats()
}

// Loading reports whether an operation is in flight.
func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Notice returns the last outcome.
func (p *Panel) Notice() Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

// DismissNotice clears the outcome.
func (p *Panel) DismissNotice() {
	p.setNotice(Notice{})
}

func (p *Panel) loadTerms(ctx context.Context) error {
	terms, err := p.svc.ExcludedTerms(ctx)
	if err != nil {
		p.logger.Warn("failed to load excluded terms", "error", err)
		return fmt.Errorf("failed to load excluded terms: %w", err)
	}
	p.mu.Lock()
	p.terms = terms
	p.mu.Unlock()
	p.changed()
	return nil
}

// loadPromptConfig replaces the settings with the stored ones. Fields the
// backend omits come back as defaults.
func (p *Panel) loadPromptConfig(ctx context.Context) error {
	cfg, ok, err := p.svc.PromptConfig(ctx)
	if err != nil {
		p.logger.Warn("failed to load prompt config", "error", err)
		return fmt.Errorf("failed to load prompt config: %w", err)
	}
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.settings = cfg.Settings
	p.configured = true
	p.mu.Unlock()
	p.changed()
	return nil
}

func (p *Panel) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
	p.changed()
}

func (p *Panel) setNotice(n Notice) {
	p.mu.Lock()
	p.notice = n
	p.mu.Unlock()
	p.changed()
}

func (p *Panel) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// invalidSettingsText drops the English sentinel prefix from a validation
// error, leaving the Spanish reason.
func invalidSettingsText(err error) string {
	msg := err.Error()
	if reason, ok := strings.CutPrefix(msg, model.ErrInvalidSettings.Error()+": "); ok {
		return "Configuración inválida: " + reason
	}
	return msg
}
