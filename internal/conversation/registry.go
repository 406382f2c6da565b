// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeranaias/statchat/internal/model"
)

// NoticeListFailed is shown when the conversation list cannot be loaded.
const NoticeListFailed = "Error cargando conversaciones"

// Lister fetches the user's conversations.
type Lister interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
}

// Registry is the user's conversation list in the order the backend returns
// it (newest first). It never reorders. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	svc    Lister
	list   []model.Conversation
	loaded bool
	notice string
	gen    uint64
	logger *slog.Logger
	subs   subscribers
}

// NewRegistry creates an empty registry.
func NewRegistry(svc Lister, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{svc: svc, logger: logger}
}

// Refresh replaces the list with the backend's. On failure the previous list
// is kept and a notice is set. When refreshes overlap, only the most
// recently started one is applied.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	list, err := r.svc.Conversations(ctx)

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		r.logger.Debug("discarding superseded conversation list")
		return nil
	}
	if err != nil {
		r.notice = NoticeListFailed
		r.mu.Unlock()
		r.logger.Warn("failed to load conversations", "error", err)
		r.subs.emit(EventNotice)
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	r.list = list
	r.loaded = true
	r.mu.Unlock()

	r.subs.emit(EventListChanged)
	return nil
}

// List returns a copy of the current list.
func (r *Registry) List() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Conversation, len(r.list))
	copy(out, r.list)
	return out
}

// Loaded reports whether a refresh has ever succeeded.
func (r *Registry) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Find returns the conversation with id.
func (r *Registry) Find(id string) (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Clear empties the list, as after logout.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.gen++
	r.list = nil
	r.loaded = false
	r.notice = ""
	r.mu.Unlock()
	r.subs.emit(EventListChanged)
}

// Notice returns the current notice, or "".
func (r *Registry) Notice() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notice
}

// DismissNotice clears the notice.
func (r *Registry) DismissNotice() {
	r.mu.Lock()
	had := r.notice != ""
	r.notice = ""
	r.mu.Unlock()
	if had {
		r.subs.emit(EventNotice)
	}
}

// Subscribe registers fn for list and notice changes.
func (r *Registry) Subscribe(fn func(Event)) func() {
	return r.subs.add(fn)
}
