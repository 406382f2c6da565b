// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/admin"
	"github.com/jeranaias/statchat/internal/model"
	"github.com/jeranaias/statchat/internal/util"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administración: términos excluidos y configuración del prompt",
	}

	terms := &cobra.Command{
		Use:   "terms",
		Short: "Términos excluidos",
	}
	terms.AddCommand(newTermsListCmd(opts), newTermsAddCmd(opts), newTermsRemoveCmd(opts))

	prompt := &cobra.Command{
		Use:   "prompt",
		Short: "Configuración del prompt",
	}
	prompt.AddCommand(newPromptShowCmd(opts), newPromptSetCmd(opts), newPromptExportCmd(opts))

	cmd.AddCommand(terms, prompt)
	return cmd
}

// withAdmin is withEnv for commands restricted to administrators.
func withAdmin(cmd *cobra.Command, opts *rootOptions, fn func(e *env) error) error {
	return withEnv(cmd, opts, func(e *env) error {
		if err := e.requireAdmin(); err != nil {
			return err
		}
		return fn(e)
	})
}

func newTermsListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Lista los términos excluidos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.LoadAll(cmd.Context()); err != nil {
					return err
				}
				terms := e.panel.Terms()
				if asJSON {
					if terms == nil {
						terms = []model.ExcludedTerm{}
					}
					return writeJSON(cmd.OutOrStdout(), terms)
				}
				out := newPrinter(cmd.OutOrStdout())
				if len(terms) == 0 {
					out.Muted("Sin términos excluidos")
					return nil
				}
				rows := make([][]string, 0, len(terms))
				for _, t := range terms {
					state := "activo"
					if !t.Active {
						state = "inactivo"
					}
					rows = append(rows, []string{t.ID, t.Term, state, util.TruncateWidth(t.Description, 40)})
				}
				return out.Table([]string{"ID", "TÉRMINO", "ESTADO", "DESCRIPCIÓN"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

func newTermsAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add TERM",
		Short: "Agrega un término excluido",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.AddTerm(cmd.Context(), term); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).Success(e.panel.Notice().Text)
				return nil
			})
		},
	}
}

func newTermsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Elimina un término excluido",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.DeleteTerm(cmd.Context(), args[0]); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).Success(e.panel.Notice().Text)
				return nil
			})
		},
	}
}

func newPromptShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Muestra la configuración activa del prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.LoadAll(cmd.Context()); err != nil {
					return err
				}
				settings, configured := e.panel.Settings()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), struct {
						Configured bool                 `json:"configured"`
						Settings   model.PromptSettings `json:"settings"`
					}{configured, settings})
				}
				out := newPrinter(cmd.OutOrStdout())
				out.Title("Configuración del prompt")
				if !configured {
					out.Muted("Sin configuración guardada; se muestran los valores por defecto")
				}
				out.Field("Temperatura", strconv.FormatFloat(settings.Temperature, 'f', 1, 64))
				out.Field("Máximo de tokens", strconv.Itoa(settings.MaxTokens))
				out.Field("Instrucciones adicionales", settings.AdditionalInstructions)
				out.Field("Restricciones", settings.Restrictions)
				out.Field("Contexto personalizado", settings.CustomContext)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

func newPromptSetCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set --file FILE",
		Short: "Guarda la configuración del prompt desde un archivo YAML",
		Long: `Guarda la configuración del prompt desde un archivo YAML.
Usa "-" para leer desde la entrada estándar. El formato es el de
"statchat admin prompt export".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return newUsageError("indica el archivo con --file")
			}
			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return newUsageError("no se pudo abrir %s: %v", file, err)
				}
				defer f.Close()
				r = f
			}
			settings, err := admin.ReadSettings(r)
			if err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.SavePromptConfig(cmd.Context(), settings); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).Success(e.panel.Notice().Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "archivo YAML con la configuración")
	return cmd
}

func newPromptExportCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta la configuración del prompt como YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(e *env) error {
				if err := e.panel.LoadAll(cmd.Context()); err != nil {
					return err
				}
				settings, _ := e.panel.Settings()
				if file == "" {
					return admin.WriteSettings(cmd.OutOrStdout(), settings)
				}
				var buf strings.Builder
				if err := admin.WriteSettings(&buf, settings); err != nil {
					return err
				}
				if err := util.AtomicWriteFile(file, []byte(buf.String()), 0600); err != nil {
					return fmt.Errorf("failed to write %s: %w", file, err)
				}
				newPrinter(cmd.OutOrStdout()).Success("Configuración exportada a " + file)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "escribir en este archivo en lugar de la salida estándar")
	return cmd
}
