// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/statchat/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestOrDefault(t *testing.T) {
	require.Same(t, slog.Default(), OrDefault(nil))
	l := New(&bytes.Buffer{}, config.LogConfig{})
	require.Same(t, l, OrDefault(l))
}

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Level: "warn", Format: "json"})

	l.Info("hidden")
	l.Warn("shown", "status", 401)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)
	require.Contains(t, out, `"status":401`)
}

func TestSetup_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "logs", "statchat.log")

	closer, err := Setup(cfg, true)
	require.NoError(t, err)
	slog.Info("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from test")
}
