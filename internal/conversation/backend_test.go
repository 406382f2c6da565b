// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jeranaias/statchat/internal/api"
)

// fakeBackend is an in-memory stand-in for the QA backend.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	conversations []map[string]any
	messages      map[string][]map[string]any
	chatReply     map[string]any
	chatStatus    int
	deleteStatus  int
	restartStatus int
	listStatus    int
	historyStatus int
	detailsStatus int
	details       map[string]any

	// gate, when set, blocks POST /chat until closed.
	gate chan struct{}
	// entered receives once per POST /chat after the body is read.
	entered chan struct{}
	// historyGates block GET /conversations/{id}/messages per id.
	historyGates   map[string]chan struct{}
	historyEntered chan string

	chatBodies []map[string]any
	restarts   []string
	deletes    []string
	requests   int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		t:        t,
		messages: make(map[string][]map[string]any),
		entered:  make(chan struct{}, 16),

		historyGates:   make(map[string]chan struct{}),
		historyEntered: make(chan string, 16),
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) client() *api.Client {
	return api.NewClient(fb.srv.URL, 0).WithLogger(discardLogger())
}

func (fb *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.requests++
	fb.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == "/chat":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.chatBodies = append(fb.chatBodies, body)
		gate, status, reply := fb.gate, fb.chatStatus, fb.chatReply
		fb.mu.Unlock()
		fb.entered <- struct{}{}
		if gate != nil {
			<-gate
		}
		fb.write(w, status, reply)

	case r.Method == http.MethodGet && path == "/conversations":
		fb.mu.Lock()
		status, list := fb.listStatus, fb.conversations
		fb.mu.Unlock()
		fb.write(w, status, list)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/conversations/") && strings.HasSuffix(path, "/messages"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/conversations/"), "/messages")
		fb.mu.Lock()
		msgs, status, gate := fb.messages[id], fb.historyStatus, fb.historyGates[id]
		fb.mu.Unlock()
		if gate != nil {
			fb.historyEntered <- id
			<-gate
		}
		fb.write(w, status, msgs)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/restart"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/conversations/"), "/restart")
		fb.mu.Lock()
		fb.restarts = append(fb.restarts, id)
		status := fb.restartStatus
		fb.mu.Unlock()
		fb.write(w, status, map[string]any{"message": "Contexto reiniciado"})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/conversations/"):
		id := strings.TrimPrefix(path, "/conversations/")
		fb.mu.Lock()
		fb.deletes = append(fb.deletes, id)
		status := fb.deleteStatus
		if status == 0 {
			kept := fb.conversations[:0:0]
			for _, c := range fb.conversations {
				if fmt.Sprint(c["id"]) != id {
					kept = append(kept, c)
				}
			}
			fb.conversations = kept
		}
		fb.mu.Unlock()
		fb.write(w, status, map[string]any{"message": "ok"})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/chat/details/"):
		fb.mu.Lock()
		status, details := fb.detailsStatus, fb.details
		fb.mu.Unlock()
		fb.write(w, status, details)

	default:
		http.NotFound(w, r)
	}
}

func (fb *fakeBackend) write(w http.ResponseWriter, status int, body any) {
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 400 {
		_, _ = io.WriteString(w, `{"detail":"boom"}`)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (fb *fakeBackend) set(fn func(fb *fakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fn(fb)
}

func (fb *fakeBackend) requestCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
