// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli defines the statchat command tree. With no subcommand the
// full-screen UI starts; every other command is a one-shot call against the
// backend using the same stored session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/ui/app"
)

// Build information, set by main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "statchat",
		Short: "Consultas en lenguaje natural sobre las defunciones registradas en Chile",
		Long: `statchat es un cliente de terminal para el asistente de preguntas sobre
el registro de defunciones de Chile. Sin subcomandos abre la interfaz
completa; los subcomandos permiten usarlo desde scripts.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() || !IsStdoutTTY() {
				return cmd.Help()
			}
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "ruta del archivo de configuración")
	flags.StringVar(&opts.apiURL, "api-url", "", "URL del backend (sobrescribe api.base_url)")
	flags.StringVar(&opts.storage, "storage", "", "almacenamiento de la sesión: file o sqlite")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "registrar en stderr con nivel debug")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newConversationsCmd(opts),
		newStatsCmd(opts),
		newContextCmd(opts),
		newAdminCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree and exits with a code matching the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", UserMessage(err))
		os.Exit(ExitCode(err))
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	e, err := openEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	e.watch(ctx)

	err = app.Run(ctx, app.Deps{
		Session:      e.session,
		Manager:      e.manager,
		Registry:     e.registry,
		Panel:        e.panel,
		Stats:        e.stats,
		Logger:       e.logger,
		Theme:        e.cfg.UI.Theme,
		ShowSQL:      e.cfg.UI.ShowSQL,
		SidebarWidth: e.cfg.UI.SidebarWidth,
	}, e.client)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "statchat %s (commit %s, built %s, %s)\n",
				Version, GitCommit, BuildDate, runtime.Version())
			return err
		},
	}
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, opts *rootOptions, fn func(e *env) error) error {
	e, err := openEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
