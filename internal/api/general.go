// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/jeranaias/statchat/internal/model"
)

// Stats returns the dataset summary.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var out statsWire
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/stats"}, &out); err != nil {
		return nil, err
	}
	s := out.toModel()
	return &s, nil
}

// Context returns the user's current conversational context.
func (c *Client) Context(ctx context.Context) (*model.ContextState, error) {
	var out contextInfoWire
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/context"}, &out); err != nil {
		return nil, err
	}
	return &model.ContextState{
		SessionID:     out.SessionID.String(),
		ActiveFilters: out.ActiveFilters,
		Interactions:  out.Interactions,
	}, nil
}

// ResetContext clears the user's conversational context across conversations.
func (c *Client) ResetContext(ctx context.Context) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/context/reset"}, nil)
}
