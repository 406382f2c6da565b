// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/conversation"
	"github.com/jeranaias/statchat/internal/model"
)

// askResult is the JSON shape of an answered question.
type askResult struct {
	ConversationID  string             `json:"conversation_id"`
	MessageID       string             `json:"message_id"`
	Question        string             `json:"question"`
	Answer          string             `json:"answer"`
	Query           string             `json:"sql_query,omitempty"`
	ContextInfo     *model.ContextInfo `json:"context_info,omitempty"`
	NewConversation bool               `json:"new_conversation"`
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		conversationID string
		asJSON         bool
		showSQL        bool
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Hace una pregunta y muestra la respuesta",
		Example: `  statchat ask "¿Cuántas defunciones hubo en 2020?"
  statchat ask --conversation 42 "¿Y en la región de Valparaíso?"
  statchat ask --json "Top 5 causas de muerte"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				ctx := cmd.Context()
				if conversationID != "" {
					if err := e.manager.Load(ctx, &model.Conversation{ID: conversationID}); err != nil {
						return err
					}
				}

				res, err := e.manager.Send(ctx, question)
				if err != nil {
					return err
				}
				if res.Skipped {
					return newUsageError("la pregunta está vacía")
				}

				r := resultOf(e.manager, res)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), r)
				}
				out := newPrinter(cmd.OutOrStdout())
				if info := r.ContextInfo; info != nil && info.Expanded && info.ExpandedQuestion != "" {
					out.Muted("Pregunta expandida: " + info.ExpandedQuestion)
				}
				out.Markdown(r.Answer)
				if showSQL && r.Query != "" {
					out.Title("Consulta SQL")
					out.SQL(r.Query)
				}
				if res.NewConversation {
					out.Muted("Conversación " + r.ConversationID + " (continúa con --conversation " + r.ConversationID + ")")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continuar la conversación con este ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "mostrar la consulta SQL generada")
	return cmd
}

func resultOf(mgr *conversation.Manager, res conversation.SendResult) askResult {
	r := askResult{
		MessageID:       res.Message.ID,
		Question:        res.Message.Question,
		Answer:          res.Message.AnswerText(),
		Query:           res.Message.QueryText(),
		ContextInfo:     res.Message.ContextInfo,
		NewConversation: res.NewConversation,
	}
	if c := mgr.Active(); c != nil {
		r.ConversationID = c.ID
	}
	return r
}
