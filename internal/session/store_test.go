// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/storage"
)

type fakeAuth struct {
	loginResult *api.LoginResult
	loginErr    error
	registerErr error

	mu        sync.Mutex
	logins    int
	registers int
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*api.LoginResult, error) {
	f.mu.Lock()
	f.logins++
	f.mu.Unlock()
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Register(_ context.Context, _, _, _ string) error {
	f.mu.Lock()
	f.registers++
	f.mu.Unlock()
	return f.registerErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, auth Authenticator) (*Store, storage.Store) {
	t.Helper()
	kv, err := storage.Open(storage.BackendFile, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return New(kv, auth, Options{Logger: quietLogger()}), kv
}

func okAuth() *fakeAuth {
	return &fakeAuth{loginResult: &api.LoginResult{AccessToken: "tok-1", TokenType: "bearer", UserID: "7"}}
}

func TestLogin_PersistsAllKeysTogether(t *testing.T) {
	s, kv := newTestStore(t, okAuth())

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	sess, err := s.Login(context.Background(), Credentials{Username: " ana ", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "tok-1", sess.Token)
	require.Equal(t, "7", sess.UserID)
	require.Equal(t, "ana", sess.Username)
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "tok-1", s.Token())

	stored, err := kv.GetMany(KeyToken, KeyUserID, KeyUsername)
	require.NoError(t, err)
	require.Equal(t, map[string]string{KeyToken: "tok-1", KeyUserID: "7", KeyUsername: "ana"}, stored)

	require.Len(t, changes, 1)
	require.Equal(t, ReasonLogin, changes[0].Reason)
}

func TestLogin_InvalidCredentialsLeavesStateUntouched(t *testing.T) {
	auth := &fakeAuth{loginErr: &api.Error{Status: http.StatusUnauthorized, Detail: "Credenciales inválidas"}}
	s, kv := newTestStore(t, auth)

	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "bad"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, "Credenciales inválidas", ErrorMessage(err))
	require.False(t, s.IsAuthenticated())

	stored, err := kv.GetMany(allKeys...)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestLogin_ValidationAndMessages(t *testing.T) {
	auth := okAuth()
	s, _ := newTestStore(t, auth)

	_, err := s.Login(context.Background(), Credentials{Username: "  ", Password: "pw"})
	require.ErrorIs(t, err, ErrMissingField)
	require.Equal(t, "El usuario es requerido", ErrorMessage(err))
	require.Zero(t, auth.logins)

	auth.loginErr = &api.Error{Status: http.StatusUnauthorized}
	_, err = s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.Equal(t, MsgBadCredentials, ErrorMessage(err))

	auth.loginErr = fmt.Errorf("%w: dial tcp: refused", api.ErrTransport)
	_, err = s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.Equal(t, api.ConnectionErrorText, ErrorMessage(err))
}

func TestLogin_RejectsIncompleteReply(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuth{loginResult: &api.LoginResult{AccessToken: "tok"}})

	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.ErrorIs(t, err, ErrInvalidResponse)
	require.False(t, s.IsAuthenticated())
}

func TestRegister(t *testing.T) {
	auth := okAuth()
	s, _ := newTestStore(t, auth)

	err := s.Register(context.Background(), Registration{Username: "ana", Password: "pw"})
	require.ErrorIs(t, err, ErrMissingField)
	require.Equal(t, "El email es requerido", ErrorMessage(err))
	require.Zero(t, auth.registers)

	require.NoError(t, s.Register(context.Background(), Registration{Username: "ana", Email: "a@b.cl", Password: "pw"}))
	require.False(t, s.IsAuthenticated(), "registration must not log in")

	auth.registerErr = &api.Error{Status: http.StatusBadRequest}
	err = s.Register(context.Background(), Registration{Username: "ana", Email: "a@b.cl", Password: "pw"})
	require.ErrorIs(t, err, ErrUserExists)
	require.Equal(t, MsgUserExists, ErrorMessage(err))
}

func TestLogout_Idempotent(t *testing.T) {
	s, kv := newTestStore(t, okAuth())
	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	var reasons []Reason
	s.Subscribe(func(c Change) { reasons = append(reasons, c.Reason) })

	require.NoError(t, s.Logout())
	require.NoError(t, s.Logout())
	require.False(t, s.IsAuthenticated())
	require.Equal(t, []Reason{ReasonLogout}, reasons)

	stored, err := kv.GetMany(allKeys...)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestCheckAuthStatus(t *testing.T) {
	t.Run("restores complete session", func(t *testing.T) {
		s, kv := newTestStore(t, okAuth())
		require.NoError(t, kv.SetMany(map[string]string{KeyToken: "t", KeyUserID: "3"}))

		require.NoError(t, s.CheckAuthStatus())
		require.True(t, s.IsAuthenticated())
		require.Equal(t, "Usuario", s.Current().DisplayName())
	})

	t.Run("partial session is unauthenticated", func(t *testing.T) {
		s, kv := newTestStore(t, okAuth())
		require.NoError(t, kv.SetMany(map[string]string{KeyToken: "t", KeyUsername: "ana"}))

		require.NoError(t, s.CheckAuthStatus())
		require.False(t, s.IsAuthenticated())
		require.Empty(t, s.Token())
	})
}

func TestIsAdmin(t *testing.T) {
	s, _ := newTestStore(t, okAuth())
	require.False(t, s.IsAdmin())

	_, err := s.Login(context.Background(), Credentials{Username: "admin", Password: "pw"})
	require.NoError(t, err)
	require.True(t, s.IsAdmin())

	auth := &fakeAuth{loginResult: &api.LoginResult{AccessToken: "t", UserID: "2", Role: "admin"}}
	s2, _ := newTestStore(t, auth)
	_, err = s2.Login(context.Background(), Credentials{Username: "maria", Password: "pw"})
	require.NoError(t, err)
	require.True(t, s2.IsAdmin())
}

func TestExpire_OnlyCurrentTokenOnce(t *testing.T) {
	s, kv := newTestStore(t, okAuth())
	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	var expired atomic.Int32
	s.Subscribe(func(c Change) {
		if c.Reason == ReasonExpired {
			expired.Add(1)
		}
	})

	require.False(t, s.Expire("other-token"))
	require.True(t, s.IsAuthenticated())

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Expire("tok-1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, 1, expired.Load())
	require.False(t, s.IsAuthenticated())

	stored, err := kv.GetMany(allKeys...)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestExpire_AdoptsNewerStoredSession(t *testing.T) {
	s, kv := newTestStore(t, okAuth())
	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	// Another process logged in with a fresh token.
	require.NoError(t, kv.SetMany(map[string]string{KeyToken: "tok-2", KeyUserID: "7", KeyUsername: "ana"}))

	require.False(t, s.Expire("tok-1"))
	require.Equal(t, "tok-2", s.Token())
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newTestStore(t, okAuth())
	calls := 0
	unsub := s.Subscribe(func(Change) { calls++ })
	unsub()

	_, err := s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	require.Zero(t, calls)
}

// Through the real transport: two requests rejected with 401 tear down once.
func TestStore_WithClientTeardownOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"srv-tok","token_type":"bearer","user_id":11}`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Token inválido"}`)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, 0).WithLogger(quietLogger())
	kv, err := storage.Open(storage.BackendFile, t.TempDir())
	require.NoError(t, err)
	defer kv.Close()
	s := New(kv, client, Options{Logger: quietLogger()})
	client.WithSession(s)

	var hooks atomic.Int32
	client.OnSessionExpired(func() { hooks.Add(1) })

	_, err = s.Login(context.Background(), Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "11", s.Current().UserID)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Conversations(context.Background())
			assert.ErrorIs(t, err, api.ErrSessionExpired)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, hooks.Load())
	require.False(t, s.IsAuthenticated())
}

func TestWatch_FollowsOtherProcess(t *testing.T) {
	dir := t.TempDir()
	kv, err := storage.Open(storage.BackendFile, dir)
	require.NoError(t, err)
	defer kv.Close()

	s := New(kv, okAuth(), Options{Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx, storage.NewWatcher(kv.Path(), 20*time.Millisecond, quietLogger())))
	defer s.Close()

	other, err := storage.Open(storage.BackendFile, dir)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.SetMany(map[string]string{KeyToken: "ext", KeyUserID: "5", KeyUsername: "luis"}))

	require.Eventually(t, s.IsAuthenticated, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, other.Delete(allKeys...))
	require.Eventually(t, func() bool { return !s.IsAuthenticated() }, 3*time.Second, 20*time.Millisecond)
}
