// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/util"
)

// User-visible texts.
const (
	FailedAnswer        = "Error: No se pudo procesar tu pregunta. Verifica tu conexión."
	NoticeSendFailed    = "Error enviando mensaje. Intenta nuevamente."
	NoticeDeleteFailed  = "Error eliminando conversación"
	NoticeRestartFailed = "Error reiniciando contexto"
	NoticeLoadFailed    = "Error cargando mensajes"

	RestartQuestion = "Contexto reiniciado"
	RestartAnswer   = "El contexto de la conversación ha sido reiniciado. Puedes hacer preguntas desde cero."
)

// Error variables for manager operations.
var (
	// ErrBusy indicates a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")

	// ErrUnknownMessage indicates a message id not in the active sequence.
	ErrUnknownMessage = errors.New("message not found")
)

// ChatService is the backend surface the manager drives.
type ChatService interface {
	SendMessage(ctx context.Context, message, conversationID string) (*api.ChatReply, error)
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	RestartConversation(ctx context.Context, conversationID string) error
	MessageDetails(ctx context.Context, messageID string) (*model.MessageDetails, error)
}

// SendResult describes how a Send ended.
type SendResult struct {
	// Message is the reconciled (or failed) message.
	Message model.Message
	// Skipped is set when the input was empty and nothing was sent.
	Skipped bool
	// Stale is set when the manager was rebound while the request was in
	// flight and the answer was dropped.
	Stale bool
	// NewConversation is set when the answer opened a conversation.
	NewConversation bool
}

// State is a copy of the manager's state for rendering.
type State struct {
	Active   *model.Conversation
	Messages []model.Message
	Busy     bool
	Loading  bool
	Draft    string
	Notice   string
}

// Manager owns the active conversation and its message sequence.
// It is safe for concurrent use; no lock is held across a network call.
type Manager struct {
	mu       sync.Mutex
	svc      ChatService
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time

	active   *model.Conversation
	messages []model.Message
	busy     bool
	loading  bool
	draft    string
	notice   string
	epoch    uint64

	subs subscribers
}

// NewManager creates a manager with no active conversation. registry may be
// nil, in which case nothing is refreshed.
func NewManager(svc ChatService, registry *Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		svc:      svc,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{
		Busy:     m.busy,
		Loading:  m.loading,
		Draft:    m.draft,
		Notice:   m.notice,
		Messages: make([]model.Message, len(m.messages)),
	}
	if m.active != nil {
		c := *m.active
		st.Active = &c
	}
	for i, msg := range m.messages {
		st.Messages[i] = msg.Clone()
	}
	return st
}

// Active returns the active conversation, or nil.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	c := *m.active
	return &c
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Draft returns the unsent input.
func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SetDraft stores the unsent input.
func (m *Manager) SetDraft(s string) {
	m.mu.Lock()
	m.draft = s
	m.mu.Unlock()
}

// Notice returns the current notice, or "".
func (m *Manager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// DismissNotice clears the notice.
func (m *Manager) DismissNotice() {
	m.mu.Lock()
	had := m.notice != ""
	m.notice = ""
	m.mu.Unlock()
	if had {
		m.subs.emit(EventNotice)
	}
}

// Subscribe registers fn for state changes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	return m.subs.add(fn)
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Load binds the manager to conv and fetches its history. A nil conv clears
// the sequence without fetching. If loading fails the previous sequence is
// kept and a notice is set.
func (m *Manager) Load(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	if conv == nil {
		m.active = nil
		m.messages = nil
		m.loading = false
		m.mu.Unlock()
		m.subs.emit(EventConversationChanged, EventMessagesChanged)
		return nil
	}
	c := *conv
	m.active = &c
	m.loading = true
	m.mu.Unlock()
	m.subs.emit(EventConversationChanged)

	msgs, err := m.svc.Messages(ctx, c.ID)

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		m.logger.Debug("discarding stale history", "conversation_id", c.ID)
		return nil
	}
	m.loading = false
	if err != nil {
		m.notice = NoticeLoadFailed
		m.mu.Unlock()
		m.logger.Warn("failed to load messages", "conversation_id", c.ID, "error", err)
		m.subs.emit(EventNotice, EventMessagesChanged)
		return fmt.Errorf("failed to load messages: %w", err)
	}
	m.messages = msgs
	m.mu.Unlock()

	m.subs.emit(EventMessagesChanged)
	return nil
}

// Send asks a question in the active conversation (or a new one).
//
// The pending message is published before the request goes out. The answer
// is matched back by temporary id. A failed request leaves the message in
// place marked failed.
func (m *Manager) Send(ctx context.Context, text string) (SendResult, error) {
	question := util.NormalizeText(text)
	if question == "" {
		return SendResult{Skipped: true}, nil
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return SendResult{}, ErrBusy
	}
	m.busy = true
	pending := model.NewPending(question, m.now())
	tempID := pending.ID
	m.messages = append(m.messages, pending)
	m.draft = ""
	convID := ""
	if m.active != nil {
		convID = m.active.ID
	}
	epoch := m.epoch
	m.mu.Unlock()
	m.subs.emit(EventMessagesChanged, EventBusyChanged)

	reply, err := m.svc.SendMessage(ctx, question, convID)

	m.mu.Lock()
	if epoch != m.epoch {
		// A failed Load keeps the old sequence, so the entry may still be
		// on screen. It must not stay pending.
		settled := false
		if idx := m.indexOf(tempID); idx >= 0 {
			if err != nil {
				_ = m.messages[idx].Fail(FailedAnswer)
			} else {
				_ = m.messages[idx].Complete(reply.MessageID.String(), reply.Response, reply.SQLQuery, reply.ContextInfo())
			}
			settled = true
		}
		m.busy = false
		m.mu.Unlock()
		m.logger.Debug("discarding stale answer", "temp_id", tempID, "settled", settled)
		if settled {
			m.subs.emit(EventMessagesChanged, EventBusyChanged)
		} else {
			m.subs.emit(EventBusyChanged)
		}
		// The backend may have opened a conversation nobody is looking at.
		if err == nil && convID == "" && m.registry != nil {
			m.refreshRegistry(ctx)
		}
		return SendResult{Stale: true}, nil
	}

	idx := m.indexOf(tempID)
	if err != nil {
		var msg model.Message
		if idx >= 0 {
			if ferr := m.messages[idx].Fail(FailedAnswer); ferr != nil {
				m.logger.Error("cannot mark message failed", "temp_id", tempID, "error", ferr)
			}
			msg = m.messages[idx].Clone()
		}
		m.notice = NoticeSendFailed
		m.busy = false
		m.mu.Unlock()
		m.logger.Warn("failed to send message", "conversation_id", convID, "error", err)
		m.subs.emit(EventMessagesChanged, EventNotice, EventBusyChanged)
		return SendResult{Message: msg}, fmt.Errorf("failed to send message: %w", err)
	}

	var msg model.Message
	if idx >= 0 {
		if cerr := m.messages[idx].Complete(reply.MessageID.String(), reply.Response, reply.SQLQuery, reply.ContextInfo()); cerr != nil {
			m.logger.Error("cannot reconcile message", "temp_id", tempID, "error", cerr)
		}
		msg = m.messages[idx].Clone()
	}

	promoted := false
	if newID := reply.ConversationID.String(); newID != "" && newID != convID {
		c := model.NewConversation(newID, question, m.now())
		m.active = &c
		promoted = true
	}
	m.busy = false
	m.mu.Unlock()

	if promoted {
		m.logger.Info("conversation created", "conversation_id", reply.ConversationID.String())
		m.subs.emit(EventMessagesChanged, EventConversationChanged, EventBusyChanged)
		if m.registry != nil {
			m.refreshRegistry(ctx)
		}
	} else {
		m.subs.emit(EventMessagesChanged, EventBusyChanged)
	}
	return SendResult{Message: msg, NewConversation: promoted}, nil
}

// RestartContext clears the backend's conversational memory for the active
// conversation and appends one system message. Without an active
// conversation it does nothing.
func (m *Manager) RestartContext(ctx context.Context) error {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return nil
	}
	id, epoch := m.active.ID, m.epoch
	m.mu.Unlock()

	if err := m.svc.RestartConversation(ctx, id); err != nil {
		m.setNotice(NoticeRestartFailed)
		m.logger.Warn("failed to restart context", "conversation_id", id, "error", err)
		return fmt.Errorf("failed to restart context: %w", err)
	}

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		m.logger.Debug("discarding stale restart", "conversation_id", id)
		return nil
	}
	m.messages = append(m.messages, model.NewSystem(RestartQuestion, RestartAnswer, m.now()))
	m.mu.Unlock()

	m.logger.Info("context restarted", "conversation_id", id)
	m.subs.emit(EventMessagesChanged)
	return nil
}

// DeleteActive deletes the active conversation. On success the manager is
// cleared (if that conversation is still active) and the registry
// refreshed; on failure nothing changes.
func (m *Manager) DeleteActive(ctx context.Context) error {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return nil
	}
	id := m.active.ID
	m.mu.Unlock()

	if err := m.svc.DeleteConversation(ctx, id); err != nil {
		m.setNotice(NoticeDeleteFailed)
		m.logger.Warn("failed to delete conversation", "conversation_id", id, "error", err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	m.mu.Lock()
	cleared := false
	if m.active != nil && m.active.ID == id {
		m.active = nil
		m.messages = nil
		m.epoch++
		cleared = true
	}
	m.mu.Unlock()

	m.logger.Info("conversation deleted", "conversation_id", id)
	if cleared {
		m.subs.emit(EventConversationChanged, EventMessagesChanged)
	}
	if m.registry != nil {
		m.refreshRegistry(ctx)
	}
	return nil
}

// NewConversation resets to an empty, unidentified conversation. The next
// Send opens one on the backend.
func (m *Manager) NewConversation() {
	m.mu.Lock()
	m.active = nil
	m.messages = nil
	m.draft = ""
	m.notice = ""
	m.loading = false
	m.epoch++
	m.mu.Unlock()
	m.subs.emit(EventConversationChanged, EventMessagesChanged, EventNotice)
}

// Details returns the extended view of a message. Local-only messages and
// backend failures yield details synthesized from the message itself.
func (m *Manager) Details(ctx context.Context, messageID string) (*model.MessageDetails, error) {
	m.mu.Lock()
	idx := m.indexOf(messageID)
	if idx < 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, messageID)
	}
	msg := m.messages[idx].Clone()
	var title string
	if m.active != nil {
		title = m.active.Title
	}
	m.mu.Unlock()

	fallback := func() *model.MessageDetails {
		d := model.FallbackDetails(msg)
		d.ConversationTitle = title
		return d
	}

	if msg.IsTemporary() || msg.Status != model.StatusComplete {
		return fallback(), nil
	}
	d, err := m.svc.MessageDetails(ctx, messageID)
	if err != nil {
		m.logger.Warn("failed to load message details, using local data", "message_id", messageID, "error", err)
		return fallback(), nil
	}
	return d, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// indexOf finds a message by id. Caller holds m.mu.
func (m *Manager) indexOf(id string) int {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) setNotice(s string) {
	m.mu.Lock()
	m.notice = s
	m.mu.Unlock()
	m.subs.emit(EventNotice)
}

// refreshRegistry reloads the sidebar list. Failures are recorded on the
// registry's own notice.
func (m *Manager) refreshRegistry(ctx context.Context) {
	if err := m.registry.Refresh(ctx); err != nil {
		m.logger.Debug("registry refresh after change failed", "error", err)
	}
}
