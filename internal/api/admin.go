// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jeranaias/statchat/internal/model"
)

// ExcludedTerms lists the terms the backend refuses to answer about.
func (c *Client) ExcludedTerms(ctx context.Context) ([]model.ExcludedTerm, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/excluded-terms"}, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[excludedTermWire](raw, "terms")
	if err != nil {
		return nil, err
	}
	out := make([]model.ExcludedTerm, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel())
	}
	return out, nil
}

// AddExcludedTerm stores a new excluded term.
func (c *Client) AddExcludedTerm(ctx context.Context, term, description string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/admin/excluded-terms",
		Body:   addTermRequest{Term: term, Description: description},
	}, nil)
}

// DeleteExcludedTerm removes an excluded term by id.
func (c *Client) DeleteExcludedTerm(ctx context.Context, id string) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/admin/excluded-terms/" + url.PathEscape(id),
	}, nil)
}

// PromptConfig returns the active prompt configuration. ok is false when
// none has been saved yet.
func (c *Client) PromptConfig(ctx context.Context) (cfg model.PromptConfig, ok bool, err error) {
	var raw json.RawMessage
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/prompt-config"}, &raw); err != nil {
		return cfg, false, err
	}
	if len(raw) == 0 {
		return cfg, false, nil
	}
	return parsePromptConfig(raw)
}

// UpdatePromptConfig saves settings under the standard configuration name.
func (c *Client) UpdatePromptConfig(ctx context.Context, settings model.PromptSettings) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/admin/prompt-config",
		Body:   promptConfigRequest{Name: model.PromptConfigName, Settings: settings},
	}, nil)
}
