// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/statchat/internal/api"
	"github.com/jeranaias/statchat/internal/session"
)

// backend is a minimal in-memory statchat server.
type backend struct {
	mu       sync.Mutex
	role     string
	terms    []map[string]any
	deleted  []string
	saved    map[string]any
	chatHits int
	expired  bool
	// statsFailures is how many GET /stats calls answer 503 first.
	statsFailures int
	statsHits     int
	resets        int
}

const testToken = "tok-123"

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{role: "user"}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secreto" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Credenciales incorrectas"}`)
			return
		}
		b.mu.Lock()
		role := b.role
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{"access_token": testToken, "token_type": "bearer", "user_id": 7, "role": role})
	})
	mux.HandleFunc("POST /chat", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message        string  `json:"message"`
			ConversationID *string `json:"conversation_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.chatHits++
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{
			"response":        "Hubo **1.234** defunciones.",
			"conversation_id": 42,
			"sql_query":       "SELECT COUNT(*) FROM defunciones",
			"message_id":      9,
		})
	}))
	mux.HandleFunc("GET /conversations", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []map[string]any{
			{"id": 42, "titulo": "¿Cuántas defunciones hubo en 2020?", "created_at": "2024-03-01T10:00:00"},
			{"id": 41, "titulo": "Top causas", "created_at": "2024-02-01T10:00:00"},
		})
	}))
	mux.HandleFunc("GET /conversations/{id}/messages", b.authed(func(w http.ResponseWriter, r *http.Request) {
		if id := r.PathValue("id"); id != "41" && id != "42" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Conversación no encontrada"}`)
			return
		}
		writeTestJSON(w, []map[string]any{
			{"id": 9, "pregunta": "¿Cuántas defunciones hubo en 2020?", "respuesta": "Hubo 1.234 defunciones.", "sql_query": "SELECT 1", "created_at": "2024-03-01T10:00:00"},
		})
	}))
	mux.HandleFunc("DELETE /conversations/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{"message": "ok"})
	}))
	mux.HandleFunc("GET /stats", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.statsHits++
		fail := b.statsFailures > 0
		if fail {
			b.statsFailures--
		}
		b.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"detail":"ocupado"}`)
			return
		}
		writeTestJSON(w, map[string]any{
			"total_defunciones": 987654,
			"total_regiones":    16,
			"total_comunas":     346,
			"anios_disponibles": 10,
			"periodo":           map[string]any{"inicio": 2014, "fin": 2023},
			"por_año":           []map[string]any{{"año": 2020, "cantidad": 126000}},
		})
	}))
	mux.HandleFunc("GET /context", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		filters := map[string]any{}
		if b.resets == 0 {
			filters["region"] = "Biobío"
			filters["anio"] = 2020
		}
		writeTestJSON(w, map[string]any{"id_sesion": "s-1", "contexto_activo": filters, "interacciones": 3})
	}))
	mux.HandleFunc("POST /context/reset", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.resets++
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{"message": "ok"})
	}))
	mux.HandleFunc("GET /admin/excluded-terms", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeTestJSON(w, map[string]any{"terms": b.terms})
	}))
	mux.HandleFunc("POST /admin/excluded-terms", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		body["id"] = len(b.terms) + 1
		b.terms = append(b.terms, body)
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{"message": "ok"})
	}))
	mux.HandleFunc("GET /admin/prompt-config", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.saved == nil {
			writeTestJSON(w, map[string]any{"message": "sin configuración"})
			return
		}
		writeTestJSON(w, b.saved)
	}))
	mux.HandleFunc("POST /admin/prompt-config", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.saved = body
		b.mu.Unlock()
		writeTestJSON(w, map[string]any{"message": "ok"})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		expired := b.expired
		b.mu.Unlock()
		if expired || r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Token inválido"}`)
			return
		}
		h(w, r)
	}
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// run executes the root command against srv and returns stdout.
func run(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(append([]string{"--api-url", srv.URL}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("STATCHAT_HOME", home)
	t.Setenv("STATCHAT_API_URL", "")
	t.Setenv("STATCHAT_MAX_RETRIES", "")
	t.Setenv("NO_COLOR", "1")
	return home
}

func login(t *testing.T, srv *httptest.Server) {
	t.Helper()
	_, err := run(t, srv, "secreto\n", "login", "-u", "ana")
	require.NoError(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	setupHome(t)
	_, srv := newBackend(t)

	_, err := run(t, srv, "", "whoami")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, ExitAuthError, ExitCode(err))

	out, err := run(t, srv, "secreto\n", "login", "-u", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "ana")

	out, err = run(t, srv, "", "whoami", "--json")
	require.NoError(t, err)
	var who map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	assert.Equal(t, "ana", who["username"])
	assert.Equal(t, "7", who["user_id"])
	assert.Equal(t, false, who["admin"])

	out, err = run(t, srv, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Sesión cerrada")

	out, err = run(t, srv, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No había una sesión activa")
}

func TestLogin_BadPassword(t *testing.T) {
	setupHome(t)
	_, srv := newBackend(t)

	_, err := run(t, srv, "otra\n", "login", "-u", "ana")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Equal(t, ExitAuthError, ExitCode(err))

	_, err = run(t, srv, "", "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAsk(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	out, err := run(t, srv, "", "ask", "--json", "¿Cuántas", "defunciones", "hubo?")
	require.NoError(t, err)
	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "42", res.ConversationID)
	assert.Equal(t, "9", res.MessageID)
	assert.True(t, res.NewConversation)
	assert.Equal(t, "SELECT COUNT(*) FROM defunciones", res.Query)
	assert.Equal(t, 1, b.chatHits)

	out, err = run(t, srv, "", "ask", "--sql", "otra pregunta")
	require.NoError(t, err)
	assert.Contains(t, out, "1.234")
	assert.Contains(t, out, "SELECT COUNT(*)")
}

func TestAsk_BlankQuestion(t *testing.T) {
	setupHome(t)
	_, srv := newBackend(t)
	login(t, srv)

	_, err := run(t, srv, "", "ask", "   ")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestAsk_ExpiredSessionClearsToken(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	b.mu.Lock()
	b.expired = true
	b.mu.Unlock()

	_, err := run(t, srv, "", "ask", "hola")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrSessionExpired))
	assert.Equal(t, "Tu sesión expiró. Ejecuta: statchat login", UserMessage(err))

	_, err = run(t, srv, "", "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestConversations(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	out, err := run(t, srv, "", "conversations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TÍTULO")
	assert.Contains(t, out, "Top causas")
	assert.Less(t, strings.Index(out, "42"), strings.Index(out, "41"))

	out, err = run(t, srv, "", "conversations", "show", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "1.234")

	_, err = run(t, srv, "", "conversations", "show", "999")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCode(err))

	_, err = run(t, srv, "", "conversations", "delete", "--yes", "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, b.deleted)
}

func TestConversationsDelete_DoesNotReadHistory(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	// The history of 99 answers 404; deleting it must still work.
	out, err := run(t, srv, "", "conversations", "delete", "--yes", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversación 99 eliminada")
	assert.Equal(t, []string{"99"}, b.deleted)
}

func TestConversationsExport(t *testing.T) {
	home := setupHome(t)
	_, srv := newBackend(t)
	login(t, srv)

	out, err := run(t, srv, "", "conversations", "export", "42", "--format", "json", "--output", "-")
	require.NoError(t, err)
	var tr struct {
		Conversation struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"conversation"`
		Messages []map[string]any `json:"messages"`
		Username string           `json:"username"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.Equal(t, "42", tr.Conversation.ID)
	assert.Equal(t, "¿Cuántas defunciones hubo en 2020?", tr.Conversation.Title)
	assert.Len(t, tr.Messages, 1)
	assert.Equal(t, "ana", tr.Username)

	dir := filepath.Join(home, "exports")
	out, err = run(t, srv, "", "conversations", "export", "42", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversación exportada a")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".md"))

	_, err = run(t, srv, "", "conversations", "export", "42", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestStats(t *testing.T) {
	setupHome(t)
	_, srv := newBackend(t)
	login(t, srv)

	out, err := run(t, srv, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "987.654 defunciones | 2014 - 2023 | 16 regiones")
	assert.Contains(t, out, "126.000")
	assert.Contains(t, out, "346")
	assert.Contains(t, out, "Actualizado:")
}

func TestStats_RetriesTransientFailure(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)
	b.mu.Lock()
	b.statsFailures = 1
	b.mu.Unlock()

	out, err := run(t, srv, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "987.654 defunciones")
	b.mu.Lock()
	assert.Equal(t, 2, b.statsHits)
	b.mu.Unlock()

	t.Setenv("STATCHAT_MAX_RETRIES", "0")
	b.mu.Lock()
	b.statsFailures = 1
	b.mu.Unlock()
	_, err = run(t, srv, "", "stats")
	require.Error(t, err)
}

func TestContext_ShowAndReset(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	out, err := run(t, srv, "", "context")
	require.NoError(t, err)
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "Biobío")

	out, err = run(t, srv, "", "context", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Contexto reiniciado")
	b.mu.Lock()
	assert.Equal(t, 1, b.resets)
	b.mu.Unlock()

	out, err = run(t, srv, "", "context")
	require.NoError(t, err)
	assert.Contains(t, out, "Sin filtros activos")
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	setupHome(t)
	_, srv := newBackend(t)
	login(t, srv)

	_, err := run(t, srv, "", "admin", "terms", "list")
	require.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, ExitAuthError, ExitCode(err))
}

func TestAdmin_TermsAndPrompt(t *testing.T) {
	home := setupHome(t)
	b, srv := newBackend(t)
	b.role = "admin"
	login(t, srv)

	out, err := run(t, srv, "", "admin", "terms", "add", "suicidio")
	require.NoError(t, err)
	assert.Contains(t, out, "Término agregado exitosamente")
	require.Len(t, b.terms, 1)
	assert.Equal(t, "suicidio", b.terms[0]["termino"])
	assert.Equal(t, "Término agregado por ana", b.terms[0]["descripcion"])

	out, err = run(t, srv, "", "admin", "terms", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "suicidio")

	file := filepath.Join(home, "prompt.yaml")
	require.NoError(t, os.WriteFile(file, []byte("temperatura: 0.3\nmax_tokens: 800\n"), 0600))
	out, err = run(t, srv, "", "admin", "prompt", "set", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuración guardada exitosamente")
	require.NotNil(t, b.saved)
	assert.Equal(t, 0.3, b.saved["configuracion"].(map[string]any)["temperatura"])

	_, err = run(t, srv, "", "admin", "prompt", "set", "--file", file+".missing")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfigCommands(t *testing.T) {
	home := setupHome(t)
	_, srv := newBackend(t)

	out, err := run(t, srv, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(out))

	_, err = run(t, srv, "", "config", "init")
	require.NoError(t, err)
	_, err = run(t, srv, "", "config", "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, err = run(t, srv, "", "config", "set", "ui.show_sql", "false")
	require.NoError(t, err)
	out, err = run(t, srv, "", "config", "get", "ui.show_sql")
	require.NoError(t, err)
	assert.Equal(t, "false", strings.TrimSpace(out))

	_, err = run(t, srv, "", "config", "set", "no.such", "1")
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitNotFound, ExitCode(&api.Error{Status: http.StatusNotFound}))
	assert.Equal(t, ExitNetworkError, ExitCode(api.ErrTransport))
	assert.Equal(t, ExitUsageError, ExitCode(newUsageError("x")))
	assert.Equal(t, ExitUsageError, ExitCode(&TTYRequiredError{}))
	assert.Equal(t, ExitGeneralError, ExitCode(errors.New("boom")))
}

// scriptedInput feeds lines to the chat loop.
type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Close() {}

func TestChatREPL(t *testing.T) {
	setupHome(t)
	b, srv := newBackend(t)
	login(t, srv)

	cmd := NewRootCmd()
	cmd.SetErr(io.Discard)
	e, err := openEnv(cmd, &rootOptions{apiURL: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	var out bytes.Buffer
	in := &scriptedInput{lines: []string{
		"¿Cuántas defunciones hubo en 2020?",
		"/details 1",
		"/list",
		"/bogus",
		"/delete",
		"s",
		"/quit",
		"never read",
	}}
	r := &chatREPL{e: e, in: in, out: newPrinter(&out), errOut: io.Discard}
	require.NoError(t, r.run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "1.234")
	assert.Contains(t, got, "Detalles del mensaje")
	assert.Contains(t, got, "Top causas")
	assert.Contains(t, got, "comando desconocido")
	assert.Contains(t, got, "Conversación eliminada")
	assert.Equal(t, []string{"42"}, b.deleted)
	assert.Equal(t, []string{"never read"}, in.lines)
	assert.Nil(t, e.manager.Active())
}
