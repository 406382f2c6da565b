// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token. It is a public request: a 401
// here means bad credentials, not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   credentialsRequest{Username: username, Password: password},
		Public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It does not authenticate.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/register",
		Body:   registerRequest{Username: username, Email: email, Password: password},
		Public: true,
	}, nil)
}
