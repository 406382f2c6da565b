// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/logging"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/storage"
)

// Durable storage keys.
const (
	KeyToken    = "token"
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyRole     = "role"
)

var allKeys = []string{KeyToken, KeyUserID, KeyUsername, KeyRole}

// AdminRole is the role value that grants the admin surface.
const AdminRole = "admin"

// Authenticator is the backend half of login and registration.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	Register(ctx context.Context, username, email, password string) error
}

// Credentials is a login form.
type Credentials struct {
	Username string
	Password string
}

// Registration is a sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
}

// Reason says why the session changed.
type Reason int

const (
	ReasonLogin Reason = iota
	ReasonLogout
	ReasonExpired
	// ReasonRestored is a startup or explicit re-check.
	ReasonRestored
	// ReasonExternal is a change made by another process.
	ReasonExternal
)

// String returns the reason name used in logs.
func (r Reason) String() string {
	switch r {
	case ReasonLogin:
		return "login"
	case ReasonLogout:
		return "logout"
	case ReasonExpired:
		return "expired"
	case ReasonRestored:
		return "restored"
	case ReasonExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Change describes one session transition.
type Change struct {
	Previous model.Session
	Current  model.Session
	Reason   Reason
}

// Options configures a Store.
type Options struct {
	// AdminUsername grants admin to the user with this name (default "admin").
	AdminUsername string
	Logger        *slog.Logger
}

// Store is the session store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	kv      storage.Store
	auth    Authenticator
	admin   string
	current model.Session
	logger  *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	watcher storage.Watcher
}

// New creates a Store. The in-memory session starts empty; call
// CheckAuthStatus to rehydrate from storage.
func New(kv storage.Store, auth Authenticator, opts Options) *Store {
	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	opts.Logger = logging.OrDefault(opts.Logger)
	return &Store{
		kv:     kv,
		auth:   auth,
		admin:  opts.AdminUsername,
		logger: opts.Logger,
		subs:   make(map[int]func(Change)),
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Current returns a copy of the session.
func (s *Store) Current() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

// IsAuthenticated reports whether a token and user id are held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Valid()
}

// IsAdmin reports whether the current user may use the admin surface.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.Valid() {
		return false
	}
	return s.current.Username == s.admin || strings.EqualFold(s.current.Role, AdminRole)
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Login authenticates and persists the session. On any failure the
// session is left untouched.
func (s *Store) Login(ctx context.Context, c Credentials) (*model.Session, error) {
	username := strings.TrimSpace(c.Username)
	if username == "" {
		return nil, &FieldError{Field: "username", Message: "El usuario es requerido"}
	}
	if c.Password == "" {
		return nil, &FieldError{Field: "password", Message: "La contraseña es requerida"}
	}

	res, err := s.auth.Login(ctx, username, c.Password)
	if err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if res.AccessToken == "" || res.UserID == "" {
		return nil, ErrInvalidResponse
	}

	next := model.Session{
		Token:    res.AccessToken,
		UserID:   res.UserID.String(),
		Username: username,
		Role:     res.Role,
	}

	s.mu.Lock()
	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	prev := s.current
	s.current = next
	s.mu.Unlock()

	s.logger.Info("logged in", "user_id", next.UserID, "username", next.Username)
	s.notify(Change{Previous: prev, Current: next, Reason: ReasonLogin})
	return &next, nil
}

// Register creates an account. It never changes the session.
func (s *Store) Register(ctx context.Context, r Registration) error {
	if strings.TrimSpace(r.Username) == "" {
		return &FieldError{Field: "username", Message: "El usuario es requerido"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &FieldError{Field: "email", Message: "El email es requerido"}
	}
	if r.Password == "" {
		return &FieldError{Field: "password", Message: "La contraseña es requerida"}
	}

	err := s.auth.Register(ctx, strings.TrimSpace(r.Username), strings.TrimSpace(r.Email), r.Password)
	if err != nil {
		if api.StatusOf(err) == http.StatusBadRequest {
			return fmt.Errorf("%w: %w", ErrUserExists, err)
		}
		return err
	}
	return nil
}

// Logout clears the session from memory and storage. It is idempotent.
// The in-memory session is cleared even if storage fails.
func (s *Store) Logout() error {
	s.mu.Lock()
	prev := s.current
	s.current = model.Session{}
	err := s.kv.Delete(allKeys...)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("failed to clear stored session", "error", err)
		err = fmt.Errorf("failed to clear stored session: %w", err)
	}
	if !prev.IsZero() {
		s.logger.Info("logged out", "user_id", prev.UserID)
		s.notify(Change{Previous: prev, Current: model.Session{}, Reason: ReasonLogout})
	}
	return err
}

// CheckAuthStatus re-reads durable storage. A session is restored only when
// both token and user id are present; anything else is unauthenticated.
func (s *Store) CheckAuthStatus() error {
	return s.reload(ReasonRestored)
}

// reload replaces the in-memory session with what storage holds.
func (s *Store) reload(reason Reason) error {
	s.mu.Lock()
	stored, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.current
	s.current = stored
	s.mu.Unlock()

	if prev != stored {
		s.logger.Debug("session reloaded", "reason", reason, "authenticated", stored.Valid())
		s.notify(Change{Previous: prev, Current: stored, Reason: reason})
	}
	return nil
}

// Expire tears down the session that used token. It reports true only for
// the call that moved the store from that token to unauthenticated, so
// concurrent 401s clear the session once.
//
// If another process has already stored a newer session, that session is
// adopted instead of being deleted.
func (s *Store) Expire(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	if s.current.Token != token {
		s.mu.Unlock()
		return false
	}
	prev := s.current

	next := model.Session{}
	stored, err := s.load()
	switch {
	case err != nil:
		s.logger.Warn("failed to read stored session during expiry", "error", err)
		if delErr := s.kv.Delete(allKeys...); delErr != nil {
			s.logger.Warn("failed to clear stored session", "error", delErr)
		}
	case stored.Valid() && stored.Token != token:
		next = stored
	default:
		if delErr := s.kv.Delete(allKeys...); delErr != nil {
			s.logger.Warn("failed to clear stored session", "error", delErr)
		}
	}
	s.current = next
	s.mu.Unlock()

	if next.Valid() {
		s.notify(Change{Previous: prev, Current: next, Reason: ReasonExternal})
		return false
	}
	s.logger.Info("session expired", "user_id", prev.UserID)
	s.notify(Change{Previous: prev, Current: next, Reason: ReasonExpired})
	return true
}

// persist writes all session keys in one batch. Caller holds s.mu.
func (s *Store) persist(sess model.Session) error {
	err := s.kv.SetMany(map[string]string{
		KeyToken:    sess.Token,
		KeyUserID:   sess.UserID,
		KeyUsername: sess.Username,
		KeyRole:     sess.Role,
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// load reads the stored session. Caller holds s.mu.
func (s *Store) load() (model.Session, error) {
	values, err := s.kv.GetMany(allKeys...)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to read stored session: %w", err)
	}
	sess := model.Session{
		Token:    values[KeyToken],
		UserID:   values[KeyUserID],
		Username: values[KeyUsername],
		Role:     values[KeyRole],
	}
	if !sess.Valid() {
		return model.Session{}, nil
	}
	return sess, nil
}

// =============================================================================
// SUBSCRIPTIONS AND WATCHING
// =============================================================================

// Subscribe registers fn for every session change and returns a function
// that removes it. fn runs outside the store's lock.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Watch re-checks the session whenever w reports that another process
// changed durable storage. Watching stops when ctx is done or Close is called.
func (s *Store) Watch(ctx context.Context, w storage.Watcher) error {
	if err := w.Start(func() {
		if err := s.reload(ReasonExternal); err != nil {
			s.logger.Warn("session re-check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to watch session storage: %w", err)
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

// Close stops watching. Storage is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}
