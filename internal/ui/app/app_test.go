// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/session"
	"github.com/jeranaias/statchat/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, username, password string) (*api.LoginResult, error) {
	if password != "secreto" {
		return nil, &api.Error{Status: 401, Method: "POST", Path: "/login"}
	}
	return &api.LoginResult{AccessToken: "tok-" + username, TokenType: "bearer", UserID: "7"}, nil
}

func (fakeAuth) Register(context.Context, string, string, string) error { return nil }

// fakeChat answers every question in conversation "42". When gate is set,
// SendMessage waits on it.
type fakeChat struct {
	gate chan struct{}

	mu      sync.Mutex
	convs   []model.Conversation
	deleted []string
}

func (f *fakeChat) SendMessage(ctx context.Context, message, conversationID string) (*api.ChatReply, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	q := "SELECT COUNT(*) FROM defunciones"
	f.mu.Lock()
	if conversationID == "" {
		f.convs = append([]model.Conversation{model.NewConversation("42", message, time.Now())}, f.convs...)
	}
	n := len(f.convs)
	f.mu.Unlock()
	return &api.ChatReply{
		Response:       "Respuesta a " + message,
		ConversationID: "42",
		SQLQuery:       &q,
		MessageID:      api.ID(fmt.Sprintf("m%d", n)),
	}, nil
}

func (f *fakeChat) Conversations(context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Conversation(nil), f.convs...), nil
}

func (f *fakeChat) Messages(context.Context, string) ([]model.Message, error) {
	return []model.Message{model.NewComplete("1", "¿Cuántas?", "Diez", nil, time.Now())}, nil
}

func (f *fakeChat) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	f.convs = nil
	return nil
}

func (f *fakeChat) RestartConversation(context.Context, string) error { return nil }

func (f *fakeChat) MessageDetails(context.Context, string) (*model.MessageDetails, error) {
	return nil, errors.New("no details")
}

type harness struct {
	chat  *fakeChat
	store *session.Store
	deps  Deps
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, err := storage.Open(storage.BackendFile, t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	store := session.New(kv, fakeAuth{}, session.Options{Logger: logger})
	if loggedIn {
		if _, err := store.Login(context.Background(), session.Credentials{Username: "ana", Password: "secreto"}); err != nil {
			t.Fatalf("login: %v", err)
		}
	}

	chat := &fakeChat{}
	registry := conversation.NewRegistry(chat, logger)
	return &harness{
		chat:  chat,
		store: store,
		deps: Deps{
			Session:  store,
			Manager:  conversation.NewManager(chat, registry, logger),
			Registry: registry,
			Logger:   logger,
			Theme:    "dark",
			ShowSQL:  true,
		},
	}
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m := New(context.Background(), h.deps)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// events replays every manager and registry notification into the model.
func events(t *testing.T, m Model) Model {
	t.Helper()
	m = update(t, m, conversationEventMsg{event: conversation.Event{Kind: conversation.EventMessagesChanged}})
	return update(t, m, conversationEventMsg{event: conversation.Event{Kind: conversation.EventListChanged}})
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_StartsOnLoginWithoutSession(t *testing.T) {
	h := newHarness(t, false)
	m := h.model(t)
	if m.screen != screenLogin {
		t.Fatalf("screen = %v, want login", m.screen)
	}
	if !strings.Contains(m.View(), "Iniciar sesión") {
		t.Errorf("login view missing title:\n%s", m.View())
	}
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t, false)
	m := h.model(t)

	m = update(t, m, keyPress("ana"))
	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("secreto"))
	m, cmd := updateCmd(t, m, keyPress("enter"))
	if cmd == nil || !m.login.pending {
		t.Fatal("submitting the form should start a login")
	}

	res := cmd()
	m = update(t, m, res)
	if m.login.pending {
		t.Error("pending flag not cleared")
	}
	if !h.store.IsAuthenticated() {
		t.Fatal("store not authenticated after login")
	}

	m = update(t, m, sessionChangedMsg{change: session.Change{Current: h.store.Current(), Reason: session.ReasonLogin}})
	if m.screen != screenChat {
		t.Errorf("screen = %v, want chat", m.screen)
	}
}

func TestLoginFailureShowsMessage(t *testing.T) {
	h := newHarness(t, false)
	m := h.model(t)

	m = update(t, m, keyPress("ana"))
	m = update(t, m, keyPress("tab"))
	m = update(t, m, keyPress("mala"))
	_, cmd := updateCmd(t, m, keyPress("enter"))
	m = update(t, m, cmd())

	if m.login.notice.text != session.MsgBadCredentials {
		t.Errorf("notice = %q", m.login.notice.text)
	}
	if m.login.fields[fieldPassword].Value() != "" {
		t.Error("password should be cleared after a failed login")
	}
}

func TestSendShowsAnswerAndPromotesConversation(t *testing.T) {
	h := newHarness(t, true)
	m := h.model(t)

	m = update(t, m, keyPress("¿Cuántas defunciones?"))
	m, cmd := updateCmd(t, m, keyPress("enter"))
	if cmd == nil {
		t.Fatal("enter should send")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	// Run the send directly; the batch also carries a spinner tick.
	m = update(t, m, m.sendCmd("¿Cuántas defunciones?")())
	m = events(t, m)

	if m.state.Active == nil || m.state.Active.ID != "42" {
		t.Fatalf("active = %+v, want conversation 42", m.state.Active)
	}
	if len(m.sidebar.Conversations) != 1 || m.sidebar.ActiveID != "42" {
		t.Errorf("sidebar = %+v active %q", m.sidebar.Conversations, m.sidebar.ActiveID)
	}
	view := m.View()
	if !strings.Contains(view, "Respuesta a ¿Cuántas defunciones?") {
		t.Errorf("answer not rendered:\n%s", view)
	}
}

func TestSendWhileBusyKeepsInput(t *testing.T) {
	h := newHarness(t, true)
	h.chat.gate = make(chan struct{})
	m := h.model(t)

	done := make(chan tea.Msg, 1)
	go func() { done <- m.sendCmd("primera")() }()

	deadline := time.Now().Add(2 * time.Second)
	for !h.deps.Manager.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("manager never became busy")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m = update(t, m, keyPress("segunda"))
	m = update(t, m, keyPress("enter"))
	if m.input.Value() != "segunda" {
		t.Errorf("input = %q, want it kept", m.input.Value())
	}
	if m.flash.text != noticeBusy {
		t.Errorf("flash = %q", m.flash.text)
	}

	close(h.chat.gate)
	m = update(t, m, <-done)
	if m.state.Busy {
		t.Error("still busy after the answer")
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t, true)
	m := h.model(t)
	m = update(t, m, m.sendCmd("hola")())
	m = events(t, m)

	m = update(t, m, keyPress("ctrl+d"))
	if m.confirm != confirmDeleteConversation {
		t.Fatal("ctrl+d should ask for confirmation")
	}
	if !strings.Contains(m.View(), confirmDelete) {
		t.Error("confirm prompt not shown")
	}
	m = update(t, m, keyPress("n"))
	if m.confirm != confirmNone || len(h.chat.deleted) != 0 {
		t.Fatal("declining must not delete")
	}

	m = update(t, m, keyPress("ctrl+d"))
	m, cmd := updateCmd(t, m, keyPress("s"))
	if cmd == nil {
		t.Fatal("confirming should delete")
	}
	m = update(t, m, cmd())
	m = events(t, m)

	if len(h.chat.deleted) != 1 || h.chat.deleted[0] != "42" {
		t.Errorf("deleted = %v", h.chat.deleted)
	}
	if m.state.Active != nil || len(m.sidebar.Conversations) != 0 {
		t.Errorf("state not cleared: active=%+v list=%v", m.state.Active, m.sidebar.Conversations)
	}
}

func TestDetailsModalFallsBackAndCloses(t *testing.T) {
	h := newHarness(t, true)
	m := h.model(t)
	m = update(t, m, m.sendCmd("hola")())
	m = events(t, m)

	m, cmd := updateCmd(t, m, keyPress("ctrl+o"))
	if cmd == nil {
		t.Fatal("ctrl+o should request details")
	}
	m = update(t, m, cmd())
	if m.details == nil || !m.details.Fallback {
		t.Fatalf("details = %+v, want local fallback", m.details)
	}
	if !strings.Contains(m.View(), "Detalles de la respuesta") {
		t.Errorf("modal not shown:\n%s", m.View())
	}

	m = update(t, m, keyPress("esc"))
	if m.details != nil {
		t.Error("esc should close the modal")
	}
}

func TestSessionExpiryRoutesToLogin(t *testing.T) {
	h := newHarness(t, true)
	m := h.model(t)
	m = update(t, m, m.sendCmd("hola")())
	m = events(t, m)

	prev := h.store.Current()
	if !h.store.Expire(prev.Token) {
		t.Fatal("expire should tear down the session")
	}
	m = update(t, m, sessionChangedMsg{change: session.Change{Previous: prev, Current: h.store.Current(), Reason: session.ReasonExpired}})

	if m.screen != screenLogin {
		t.Fatalf("screen = %v, want login", m.screen)
	}
	if m.login.notice.text != noticeExpired {
		t.Errorf("notice = %q", m.login.notice.text)
	}
	if h.deps.Registry.Loaded() || h.deps.Manager.Active() != nil {
		t.Error("conversation state should be cleared on expiry")
	}
}

func TestNewConversationResets(t *testing.T) {
	h := newHarness(t, true)
	m := h.model(t)
	m = update(t, m, m.sendCmd("hola")())
	m = events(t, m)

	m = update(t, m, keyPress("ctrl+n"))
	m = events(t, m)
	if m.state.Active != nil || len(m.state.Messages) != 0 {
		t.Errorf("state after ctrl+n = %+v", m.state)
	}
	if !strings.Contains(m.View(), "Nueva conversación") {
		t.Error("header should show a new conversation")
	}
}

func TestAdminStepsClamp(t *testing.T) {
	tests := []struct {
		in, delta, want float64
	}{
		{0.1, -0.1, 0},
		{0, -0.1, 0},
		{0.95, 0.1, 1},
		{0.3, 0.1, 0.4},
	}
	for _, tt := range tests {
		if got := stepTemperature(tt.in, tt.delta); got != tt.want {
			t.Errorf("stepTemperature(%v, %v) = %v, want %v", tt.in, tt.delta, got, tt.want)
		}
	}
	if got := stepTokens(100, -100); got != model.MinMaxTokens {
		t.Errorf("stepTokens floor = %d", got)
	}
	if got := stepTokens(1950, 100); got != model.MaxMaxTokens {
		t.Errorf("stepTokens ceiling = %d", got)
	}
}
