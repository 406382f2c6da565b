// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error variables for transport failures.
var (
	// ErrSessionExpired indicates the backend rejected the bearer token.
	ErrSessionExpired = errors.New("session expired")

	// ErrTransport indicates the request failed before an HTTP response arrived.
	ErrTransport = errors.New("transport error")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// ConnectionErrorText is shown when the backend cannot be reached.
const ConnectionErrorText = "Error de conexión. Verifica que el servidor esté funcionando."

// Error represents a non-2xx response from the backend.
type Error struct {
	Status int
	// Detail is the backend's explanation ("detail" field), if any.
	Detail string
	Method string
	Path   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DetailOf returns the backend detail carried by err, or "".
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsTransient reports whether retrying the same request might succeed:
// network failures, timeouts, 429 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := StatusOf(err)
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// IsNotFound reports a 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// Message renders err as user-facing text: the backend's detail when it sent
// one, the connection text for transport failures, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if d := DetailOf(err); d != "" {
		return d
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
		return ConnectionErrorText
	}
	return fallback
}
