// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/export"
	"github.com/jeranaias/statchat/internal/model"
)

func newConversationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Lista, muestra y elimina conversaciones",
	}
	cmd.AddCommand(
		newConversationsListCmd(opts),
		newConversationsShowCmd(opts),
		newConversationsDeleteCmd(opts),
		newConversationsExportCmd(opts),
	)
	return cmd
}

func newConversationsListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lista las conversaciones, la más reciente primero",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				if err := e.registry.Refresh(cmd.Context()); err != nil {
					return err
				}
				convs := e.registry.List()
				if asJSON {
					if convs == nil {
						convs = []model.Conversation{}
					}
					return writeJSON(cmd.OutOrStdout(), convs)
				}
				return printConversations(newPrinter(cmd.OutOrStdout()), convs, "")
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

func newConversationsShowCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		showSQL bool
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Muestra los mensajes de una conversación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				conv := model.Conversation{ID: args[0]}
				if err := e.registry.Refresh(cmd.Context()); err == nil {
					if found, ok := e.registry.Find(args[0]); ok {
						conv = found
					}
				}
				if err := e.manager.Load(cmd.Context(), &conv); err != nil {
					return err
				}
				msgs := e.manager.Snapshot().Messages
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), struct {
						Conversation model.Conversation `json:"conversation"`
						Messages     []model.Message    `json:"messages"`
					}{conv, msgs})
				}
				out := newPrinter(cmd.OutOrStdout())
				out.Title(conv.DisplayTitle())
				if len(msgs) == 0 {
					out.Muted("Sin mensajes")
				}
				for i, m := range msgs {
					printExchange(out, i+1, m, showSQL)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "mostrar las consultas SQL")
	return cmd
}

func newConversationsDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Elimina una conversación",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !IsTTY() {
					return newUsageError("usa --yes para eliminar sin confirmación")
				}
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				answer, err := p.Line("¿Eliminar la conversación " + args[0] + "? [s/N] ")
				if err != nil || !isYes(answer) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelado")
					return nil
				}
			}
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				// The history is not needed, so a broken one cannot block the delete.
				if err := e.client.DeleteConversation(cmd.Context(), args[0]); err != nil {
					return err
				}
				if err := e.registry.Refresh(cmd.Context()); err != nil {
					e.logger.Warn("failed to refresh conversations", "error", err)
				}
				newPrinter(cmd.OutOrStdout()).Success("Conversación " + args[0] + " eliminada")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "no pedir confirmación")
	return cmd
}

func newConversationsExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
		noSQL  bool
	)
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Exporta una conversación como Markdown, HTML o JSON",
		Example: `  statchat conversations export 42
  statchat conversations export 42 --format html --output ~/informes
  statchat conversations export 42 --format json --output - | jq .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportOpts := export.DefaultOptions()
			exportOpts.IncludeQueries = !noSQL
			exporter, err := export.ForFormat(format, exportOpts)
			if err != nil {
				return newUsageError("%v", err)
			}
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				conv := model.Conversation{ID: args[0]}
				if err := e.registry.Refresh(cmd.Context()); err == nil {
					if found, ok := e.registry.Find(args[0]); ok {
						conv = found
					}
				}
				if err := e.manager.Load(cmd.Context(), &conv); err != nil {
					return err
				}
				return writeTranscript(cmd.OutOrStdout(), e.transcript(), exporter, output)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "formato: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", ".", "directorio de salida, o - para la salida estándar")
	cmd.Flags().BoolVar(&noSQL, "no-sql", false, "omitir las consultas SQL")
	return cmd
}

// transcript captures the conversation the manager has loaded.
func (e *env) transcript() *export.Transcript {
	t := &export.Transcript{
		Messages:   e.manager.Snapshot().Messages,
		Username:   e.session.Current().DisplayName(),
		ExportedAt: time.Now(),
	}
	if c := e.manager.Active(); c != nil {
		t.Conversation = *c
	}
	return t
}

// writeTranscript writes t to w when output is "-", otherwise into the
// output directory.
func writeTranscript(w io.Writer, t *export.Transcript, exporter export.Exporter, output string) error {
	if output == "-" {
		content, err := exporter.Export(t)
		if err != nil {
			return err
		}
		_, err = w.Write(content)
		return err
	}
	path, err := export.WriteFile(t, exporter, output)
	if err != nil {
		return err
	}
	newPrinter(w).Success("Conversación exportada a " + path)
	return nil
}
