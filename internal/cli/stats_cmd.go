// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/ui/components"
	"github.com/jeranaias/statchat/internal/util"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Muestra el resumen del registro de defunciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				if err := e.stats.Refresh(cmd.Context()); err != nil {
					return err
				}
				st := e.stats.Stats()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}

				out := newPrinter(cmd.OutOrStdout())
				out.Title("Registro de defunciones")
				out.Field("Resumen", components.StatsSummary(*st))
				if st.TotalComunas > 0 {
					out.Field("Comunas", strconv.Itoa(st.TotalComunas))
				}
				if st.Years > 0 {
					out.Field("Años disponibles", strconv.Itoa(st.Years))
				}
				out.Field("Actualizado", e.stats.FetchedAt().Format("02-01-2006 15:04"))
				if len(st.ByYear) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(st.ByYear))
				for _, y := range st.ByYear {
					rows = append(rows, []string{strconv.Itoa(y.Year), util.FormatCount(y.Count, util.DefaultLocale)})
				}
				return out.Table([]string{"AÑO", "DEFUNCIONES"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}
