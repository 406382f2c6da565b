// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/statchat/internal/admin"
	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/session"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
)

// Errors raised by the commands themselves.
var (
	// ErrNotLoggedIn is returned by commands that need a session.
	ErrNotLoggedIn = errors.New("no hay una sesión activa; ejecuta: statchat login")

	// ErrNotAdmin is returned by admin commands for regular users.
	ErrNotAdmin = errors.New("esta operación requiere permisos de administrador")

	// errConfig marks configuration failures for the exit code.
	errConfig = errors.New("configuration error")
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	var (
		ttyErr   *TTYRequiredError
		usageErr *usageError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrNotAdmin),
		errors.Is(err, api.ErrSessionExpired), errors.Is(err, session.ErrInvalidCredentials):
		return ExitAuthError
	case errors.Is(err, session.ErrMissingField), errors.Is(err, model.ErrInvalidSettings),
		errors.Is(err, admin.ErrEmptyTerm), errors.As(err, &ttyErr), errors.As(err, &usageErr):
		return ExitUsageError
	case api.IsNotFound(err):
		return ExitNotFound
	case errors.Is(err, api.ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// UserMessage renders err in the words the user should see.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrSessionExpired):
		return "Tu sesión expiró. Ejecuta: statchat login"
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrNotAdmin):
		return err.Error()
	case errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrUserExists),
		errors.Is(err, session.ErrMissingField), errors.Is(err, session.ErrInvalidResponse):
		return session.ErrorMessage(err)
	case errors.Is(err, api.ErrTransport):
		return api.ConnectionErrorText
	}
	if d := api.DetailOf(err); d != "" {
		return d
	}
	return err.Error()
}

// usageError wraps a bad-argument message.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
