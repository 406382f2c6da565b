// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/config"
	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/export"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// linerInput provides line editing and persistent history.
type linerInput struct {
	line        *liner.State
	historyFile string
}

func newLinerInput() *linerInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &linerInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// ReadInput reads a line; non-empty lines are added to the history.
func (c *linerInput) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (c *linerInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

const chatHelp = `Comandos:
  /new          nueva conversación
  /restart      reiniciar el contexto de la conversación
  /delete       eliminar la conversación actual
  /list         listar conversaciones
  /open ID      abrir una conversación
  /details N    detalles del mensaje N
  /export [FMT] exportar la conversación (markdown, html, json)
  /sql          mostrar u ocultar las consultas SQL
  /help         esta ayuda
  /quit         salir`

// errQuit ends the REPL.
var errQuit = errors.New("quit")

type chatREPL struct {
	e       *env
	in      lineReader
	out     *printer
	errOut  io.Writer
	showSQL bool
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Conversación interactiva en modo línea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() {
				return &TTYRequiredError{Operation: "chat"}
			}
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				// Ctrl+C cancels the request in flight, not the session.
				base := context.WithoutCancel(cmd.Context())
				watchCtx, stop := context.WithCancel(base)
				defer stop()
				e.watch(watchCtx)

				in := newLinerInput()
				defer in.Close()
				r := &chatREPL{
					e:       e,
					in:      in,
					out:     newPrinter(cmd.OutOrStdout()),
					errOut:  cmd.ErrOrStderr(),
					showSQL: e.cfg.UI.ShowSQL,
				}
				if conversationID != "" {
					if err := r.handle(base, "/open "+conversationID); err != nil {
						return err
					}
				}
				return r.run(base)
			})
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "abrir esta conversación al empezar")
	return cmd
}

func (r *chatREPL) run(ctx context.Context) error {
	r.out.Title("statchat")
	r.out.Muted("Escribe tu pregunta, o /help para ver los comandos.")
	for {
		line, err := r.in.ReadInput(r.prompt())
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin.
			fmt.Fprintln(r.errOut)
			return nil
		}
		reqCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
		err = r.handle(reqCtx, line)
		cancel()
		if errors.Is(err, errQuit) {
			return nil
		}
		if errors.Is(err, ErrNotLoggedIn) {
			return err
		}
		if err != nil {
			r.out.Failure(UserMessage(err))
		}
		if !r.e.session.IsAuthenticated() {
			return ErrNotLoggedIn
		}
	}
}

func (r *chatREPL) prompt() string {
	if c := r.e.manager.Active(); c != nil {
		return "statchat [" + c.ID + "]> "
	}
	return "statchat> "
}

// handle runs one input line: a slash command or a question.
func (r *chatREPL) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return r.ask(ctx, line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return errQuit
	case "/help", "/h":
		fmt.Fprintln(r.out.w, chatHelp)
	case "/new":
		r.e.manager.NewConversation()
		r.out.Muted("Nueva conversación")
	case "/restart":
		if r.e.manager.Active() == nil {
			r.out.Muted("No hay una conversación activa")
			return nil
		}
		if err := r.e.manager.RestartContext(ctx); err != nil {
			return err
		}
		r.out.Success(conversation.RestartQuestion)
	case "/delete":
		return r.deleteActive(ctx)
	case "/list":
		return r.list(ctx)
	case "/open":
		if arg == "" {
			return newUsageError("uso: /open ID")
		}
		return r.open(ctx, arg)
	case "/details":
		return r.details(ctx, arg)
	case "/export":
		return r.export(arg)
	case "/sql":
		r.showSQL = !r.showSQL
		if r.showSQL {
			r.out.Muted("Consultas SQL visibles")
		} else {
			r.out.Muted("Consultas SQL ocultas")
		}
	default:
		return newUsageError("comando desconocido: %s (usa /help)", name)
	}
	return nil
}

func (r *chatREPL) ask(ctx context.Context, question string) error {
	res, err := r.e.manager.Send(ctx, question)
	if err != nil {
		return err
	}
	if res.Skipped || res.Stale {
		return nil
	}
	printAnswer(r.out, res.Message, r.showSQL)
	return nil
}

func (r *chatREPL) deleteActive(ctx context.Context) error {
	active := r.e.manager.Active()
	if active == nil {
		r.out.Muted("No hay una conversación activa")
		return nil
	}
	answer, err := r.in.ReadInput(fmt.Sprintf("¿Eliminar \"%s\"? [s/N] ", active.DisplayTitle()))
	if err != nil || !isYes(answer) {
		r.out.Muted("Cancelado")
		return nil
	}
	if err := r.e.manager.DeleteActive(ctx); err != nil {
		return err
	}
	r.out.Success("Conversación eliminada")
	return nil
}

func (r *chatREPL) list(ctx context.Context) error {
	if err := r.e.registry.Refresh(ctx); err != nil {
		return err
	}
	activeID := ""
	if c := r.e.manager.Active(); c != nil {
		activeID = c.ID
	}
	return printConversations(r.out, r.e.registry.List(), activeID)
}

func (r *chatREPL) open(ctx context.Context, id string) error {
	conv, ok := r.e.registry.Find(id)
	if !ok {
		conv = model.Conversation{ID: id}
	}
	if err := r.e.manager.Load(ctx, &conv); err != nil {
		return err
	}
	msgs := r.e.manager.Snapshot().Messages
	r.out.Title(conv.DisplayTitle())
	for i, m := range msgs {
		printExchange(r.out, i+1, m, r.showSQL)
	}
	return nil
}

func (r *chatREPL) details(ctx context.Context, arg string) error {
	msgs := r.e.manager.Snapshot().Messages
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(msgs) {
		return newUsageError("uso: /details N (1-%d)", len(msgs))
	}
	d, err := r.e.manager.Details(ctx, msgs[n-1].ID)
	if err != nil {
		return err
	}
	printDetails(r.out, d)
	return nil
}

func (r *chatREPL) export(format string) error {
	if r.e.manager.Active() == nil {
		r.out.Muted("No hay una conversación activa")
		return nil
	}
	if format == "" {
		format = "markdown"
	}
	exporter, err := export.ForFormat(format, export.DefaultOptions())
	if err != nil {
		return newUsageError("%v", err)
	}
	return writeTranscript(r.out.w, r.e.transcript(), exporter, ".")
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

// =============================================================================
// SHARED PRINTING
// =============================================================================

// printAnswer prints the answer part of a message.
func printAnswer(out *printer, m model.Message, showSQL bool) {
	if m.Status == model.StatusFailed {
		out.Failure(m.AnswerText())
		return
	}
	if info := m.ContextInfo; info != nil && info.Expanded && info.ExpandedQuestion != "" {
		out.Muted("Pregunta expandida: " + info.ExpandedQuestion)
	}
	out.Markdown(m.AnswerText())
	if showSQL && m.GeneratedQuery != nil {
		out.SQL(*m.GeneratedQuery)
	}
}

// printExchange prints a numbered question and its answer.
func printExchange(out *printer, n int, m model.Message, showSQL bool) {
	out.Title(fmt.Sprintf("#%d %s", n, util.TruncateWidth(m.Question, out.width-6)))
	printAnswer(out, m, showSQL)
}

func printConversations(out *printer, convs []model.Conversation, activeID string) error {
	if len(convs) == 0 {
		out.Muted("Sin conversaciones")
		return nil
	}
	rows := make([][]string, 0, len(convs))
	for _, c := range convs {
		mark := ""
		if c.ID == activeID {
			mark = "*"
		}
		rows = append(rows, []string{mark + c.ID, util.TruncateWidth(c.DisplayTitle(), 50), c.CreatedAt.Format("02-01-2006 15:04")})
	}
	return out.Table([]string{"ID", "TÍTULO", "CREADA"}, rows)
}

func printDetails(out *printer, d *model.MessageDetails) {
	out.Title("Detalles del mensaje")
	if d.Fallback {
		out.Muted("Generados con la información local del mensaje")
	}
	out.Field("Conversación", d.ConversationTitle)
	out.Field("Pregunta", d.Question)
	out.Field("Fecha", d.Timestamp)
	out.Markdown(d.Answer)
	if d.Query != "" {
		out.Title("Consulta SQL")
		out.SQL(d.Query)
	}
	if a := d.Analysis; a != nil {
		out.Field("Tipo", a.Kind)
		out.Field("Complejidad", a.Complexity)
	}
	if c := d.ContextInfo; c != nil {
		out.Field("Sesión", c.SessionID)
		out.Field("Interacciones", strconv.Itoa(c.Interactions))
	}
	if t := d.Trail; t != nil {
		out.Field("Mensajes en la conversación", strconv.Itoa(t.TotalMessages))
	}
	out.Field("Modelo", d.ModelUsed)
	out.Field("Tiempo", d.ProcessingTime)
	if d.ConfidenceScore != nil {
		out.Field("Confianza", fmt.Sprintf("%.0f%%", *d.ConfidenceScore*100))
	}
}
