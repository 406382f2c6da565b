// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP transport to the question-answering backend.
//
// Every request that is not explicitly public carries the current session
// token as a bearer credential. A 401 on such a request tears the session
// down through SessionSource.Expire and fires the session-expired hook once
// per token, no matter how many requests fail concurrently.
//
// Error classes:
//   - ErrSessionExpired: the backend rejected the token
//   - ErrTransport: the request never produced an HTTP response
//   - *Error: any other non-2xx response, with the backend's detail text
//
// IsTransient reports whether a retry might succeed.
package api
