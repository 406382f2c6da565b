// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newContextCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Muestra el contexto conversacional del asistente",
		Long: `Muestra los filtros que el asistente recuerda entre preguntas.

Usa "statchat context reset" para olvidarlos en todas las conversaciones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				st, err := e.client.Context(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}

				out := newPrinter(cmd.OutOrStdout())
				out.Title("Contexto actual")
				out.Field("Sesión", st.SessionID)
				out.Field("Interacciones", strconv.Itoa(st.Interactions))
				if len(st.ActiveFilters) == 0 {
					out.Muted("Sin filtros activos")
					return nil
				}
				keys := make([]string, 0, len(st.ActiveFilters))
				for k := range st.ActiveFilters {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{k, fmt.Sprint(st.ActiveFilters[k])})
				}
				return out.Table([]string{"FILTRO", "VALOR"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Olvida el contexto en todas las conversaciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				if err := e.client.ResetContext(cmd.Context()); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).Success("Contexto reiniciado")
				return nil
			})
		},
	})
	return cmd
}
