// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a small durable string map shared between processes.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// GetMany returns the values present for keys. Missing keys are omitted.
	// All values come from one consistent snapshot.
	GetMany(keys ...string) (map[string]string, error)

	// SetMany writes every entry in one atomic batch.
	SetMany(values map[string]string) error

	// Delete removes keys in one atomic batch. Missing keys are ignored.
	Delete(keys ...string) error

	// Path is the file backing the store. Watcher uses it.
	Path() string

	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open opens the store for backend inside dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return NewFileStore(filepath.Join(dir, "session.json"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "session.db"))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
