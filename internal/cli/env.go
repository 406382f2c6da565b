// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/admin"
	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/config"
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/logging"
	"github.com/jeranaias/statchat/internal/session"
	"github.com/jeranaias/statchat/internal/storage"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	apiURL     string
	storage    string
	verbose    bool
}

// env is the wired application: config, then logging, then storage, then
// the transport, then the session, then the services built on them.
type env struct {
	cfg    *config.Config
	logger *slog.Logger

	kv       storage.Store
	client   *api.Client
	session  *session.Store
	registry *conversation.Registry
	manager  *conversation.Manager
	stats    *admin.StatsTracker
	panel    *admin.Panel

	closers []io.Closer
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	if err != nil {
		// Load returns usable defaults with the decode error.
		fmt.Fprintf(cmd.ErrOrStderr(), "Advertencia: %v (usando valores por defecto)\n", err)
	}

	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.storage != "" {
		cfg.Storage.Backend = opts.storage
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return cfg, nil
}

// openEnv wires everything a backend command needs. Logs go to the log
// file, or to stderr with --verbose.
func openEnv(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}

	if opts.verbose {
		e.logger = logging.New(cmd.ErrOrStderr(), cfg.Log)
	} else {
		closer, err := logging.Setup(cfg, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		e.closers = append(e.closers, closer)
		e.logger = slog.Default()
	}

	if err := config.EnsureConfigDir(); err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	dir, err := cfg.StorageDir()
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	kv, err := storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	e.kv = kv
	e.closers = append(e.closers, kv)

	e.client = api.NewClient(cfg.API.BaseURL, cfg.Timeout()).
		WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst).
		WithMaxRetries(cfg.API.MaxRetries).
		WithUserAgent(cfg.API.UserAgent).
		WithLogger(e.logger)

	e.session = session.New(kv, e.client, session.Options{
		AdminUsername: cfg.Auth.AdminUsername,
		Logger:        e.logger,
	})
	e.client.WithSession(e.session)
	if err := e.session.CheckAuthStatus(); err != nil {
		e.logger.Warn("failed to restore session", "error", err)
	}

	e.registry = conversation.NewRegistry(e.client, e.logger)
	e.manager = conversation.NewManager(e.client, e.registry, e.logger)
	e.stats = admin.NewStatsTracker(e.client, e.logger)
	e.panel = admin.NewPanel(e.client, e.stats, func() string {
		return e.session.Current().DisplayName()
	}, e.logger)

	e.logger.Debug("environment ready",
		"api", cfg.API.BaseURL,
		"storage", cfg.Storage.Backend,
		"authenticated", e.session.IsAuthenticated())
	return e, nil
}

// watch follows session changes made by other processes until ctx is done.
func (e *env) watch(ctx context.Context) {
	if !e.cfg.Storage.Watch {
		return
	}
	w := storage.NewWatcher(e.kv.Path(), e.cfg.WatchDebounce(), e.logger)
	if err := e.session.Watch(ctx, w); err != nil {
		e.logger.Warn("session watcher unavailable", "error", err)
	}
}

func (e *env) requireSession() error {
	if !e.session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

func (e *env) requireAdmin() error {
	if err := e.requireSession(); err != nil {
		return err
	}
	if !e.session.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// Close releases the watcher, storage and log file, in reverse order.
func (e *env) Close() error {
	if e.session != nil {
		e.session.Close()
	}
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}
