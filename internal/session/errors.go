// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/statchat/internal/api"
)

// Error variables for authentication failures.
var (
	// ErrInvalidCredentials indicates the backend rejected username/password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists indicates registration conflicted with an existing user.
	ErrUserExists = errors.New("user already exists")

	// ErrMissingField indicates a required form field was empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidResponse indicates a login reply without token or user id.
	ErrInvalidResponse = errors.New("invalid login response")
)

// Fallback texts shown when the backend gives no detail.
const (
	MsgAuthFailed     = "Error de autenticación"
	MsgRegisterFailed = "Error en el registro"
	MsgBadCredentials = "Usuario o contraseña incorrectos"
	MsgUserExists     = "El usuario ya existe"
	MsgRegistered     = "Usuario registrado exitosamente. Ahora puedes hacer login."
)

// FieldError reports an empty required field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrMissingField.
func (e *FieldError) Unwrap() error { return ErrMissingField }

// ErrorMessage renders a login or registration error for the user: local
// validation text, then the backend's detail, then a status-based text,
// then the connection text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}
	if d := api.DetailOf(err); d != "" {
		return d
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return MsgBadCredentials
	case errors.Is(err, ErrUserExists):
		return MsgUserExists
	case errors.Is(err, ErrInvalidResponse):
		return MsgAuthFailed
	default:
		return api.ConnectionErrorText
	}
}
