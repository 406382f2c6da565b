// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// DefaultUsername is shown when a session has no stored username.
const DefaultUsername = "Usuario"

// Session is the authenticated identity. Token and UserID are either both
// set or both empty.
type Session struct {
	Token    string `json:"-"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// IsZero reports whether the session is unauthenticated.
func (s Session) IsZero() bool {
	return s.Token == "" && s.UserID == ""
}

// Valid reports whether the session satisfies the both-or-neither rule and
// is authenticated.
func (s Session) Valid() bool {
	return s.Token != "" && s.UserID != ""
}

// DisplayName returns the username or the default placeholder.
func (s Session) DisplayName() string {
	if s.Username == "" {
		return DefaultUsername
	}
	return s.Username
}
