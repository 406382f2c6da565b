// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for statchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - APIConfig: Backend URL, timeout and client-side rate limit
//   - StorageConfig: Where the session is persisted and whether it is watched
//   - LogConfig: slog level, format and destination
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (STATCHAT_*)
//   - $STATCHAT_HOME/config.toml (default ~/.statchat/config.toml)
//   - $STATCHAT_HOME/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.API.BaseURL, cfg.Timeout())
package config
