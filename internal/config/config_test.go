// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STATCHAT_HOME", dir)
	for _, k := range []string{"STATCHAT_API_URL", "STATCHAT_TIMEOUT", "STATCHAT_LOG_LEVEL", "STATCHAT_STORAGE", "STATCHAT_ADMIN", "STATCHAT_MAX_RETRIES"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	require.Equal(t, "admin", cfg.Auth.AdminUsername)
	require.Equal(t, 120*time.Second, cfg.Timeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default().API, cfg.API)
	require.Equal(t, "file", cfg.Storage.Backend)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	data := `
[api]
base_url = "https://stats.example.cl/"
timeout_secs = 30

[storage]
backend = "SQLite"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://stats.example.cl", cfg.API.BaseURL, "trailing slash is trimmed")
	require.Equal(t, 30, cfg.API.TimeoutSecs)
	require.Equal(t, "sqlite", cfg.Storage.Backend)
	// Untouched sections keep their defaults.
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.Storage.Watch)

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"log":{"level":"debug"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BrokenFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api\nbase_url="), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STATCHAT_API_URL", "http://backend:9000")
	t.Setenv("STATCHAT_TIMEOUT", "15")
	t.Setenv("STATCHAT_ADMIN", "root")
	t.Setenv("STATCHAT_MAX_RETRIES", "4")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	require.Equal(t, 15, cfg.API.TimeoutSecs)
	require.Equal(t, "root", cfg.Auth.AdminUsername)
	require.Equal(t, 4, cfg.API.MaxRetries)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://x"
	cfg.API.TimeoutSecs = 0
	cfg.API.MaxRetries = 9
	cfg.Storage.Backend = "redis"
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	require.True(t, fields["api.base_url"])
	require.True(t, fields["api.timeout_secs"])
	require.True(t, fields["api.max_retries"])
	require.True(t, fields["storage.backend"])
	require.True(t, fields["log.level"])
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.API.BaseURL = "https://example.org"
	cfg.UI.Compact = true

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.org", loaded.API.BaseURL)
	require.True(t, loaded.UI.Compact)
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.timeout_secs", "45"))
	require.NoError(t, cfg.Set("ui.show_sql", "false"))
	require.NoError(t, cfg.Set("api.rate_limit", "2.5"))

	v, err := cfg.Get("api.timeout_secs")
	require.NoError(t, err)
	require.Equal(t, 45, v)
	require.False(t, cfg.UI.ShowSQL)
	require.Equal(t, 2.5, cfg.API.RateLimit)

	_, err = cfg.Get("api.nope")
	require.Error(t, err)
	_, err = cfg.Get("api")
	require.Error(t, err, "sections are not values")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	require.Contains(t, keys, "api.base_url")
	require.Contains(t, keys, "storage.backend")
	require.Contains(t, keys, "version")
}
