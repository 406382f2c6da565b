// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/statchat/internal/model"
)

// settingsHeader precedes exported settings files.
const settingsHeader = "# statchat prompt configuration\n# temperatura: 0.0-1.0, max_tokens: 100-2000\n"

// ReadSettings parses YAML prompt settings. Missing fields take their
// defaults; unknown fields are rejected so typos do not pass silently.
func ReadSettings(r io.Reader) (model.PromptSettings, error) {
	settings := model.DefaultPromptSettings()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil {
		if errors.Is(err, io.EOF) {
			return settings, fmt.Errorf("%w: empty file", model.ErrInvalidSettings)
		}
		return settings, fmt.Errorf("failed to parse prompt settings: %w", err)
	}
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// WriteSettings writes settings as commented YAML.
func WriteSettings(w io.Writer, settings model.PromptSettings) error {
	var buf bytes.Buffer
	buf.WriteString(settingsHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode prompt settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode prompt settings: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write prompt settings: %w", err)
	}
	return nil
}
