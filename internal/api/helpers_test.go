// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"
	"log/slog"

	"github.com/jeranaias/statchat/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultSettingsForTest() model.PromptSettings {
	return model.DefaultPromptSettings()
}
