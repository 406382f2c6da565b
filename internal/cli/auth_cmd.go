// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/session"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token",
		Example: `  statchat login
  statchat login --username ana`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				var err error
				if username == "" {
					if username, err = p.Line("Usuario: "); err != nil {
						return err
					}
				}
				password, err := p.Password("Contraseña: ")
				if err != nil {
					return err
				}
				sess, err := e.session.Login(cmd.Context(), session.Credentials{Username: username, Password: password})
				if err != nil {
					return err
				}
				out := newPrinter(cmd.OutOrStdout())
				out.Success("Sesión iniciada como " + sess.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "nombre de usuario")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Crea una cuenta nueva",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				var err error
				if username == "" {
					if username, err = p.Line("Usuario: "); err != nil {
						return err
					}
				}
				if email == "" {
					if email, err = p.Line("Email: "); err != nil {
						return err
					}
				}
				password, err := p.Password("Contraseña: ")
				if err != nil {
					return err
				}
				reg := session.Registration{Username: username, Email: email, Password: password}
				if err := e.session.Register(cmd.Context(), reg); err != nil {
					return err
				}
				newPrinter(cmd.OutOrStdout()).Success(session.MsgRegistered)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "nombre de usuario")
	cmd.Flags().StringVar(&email, "email", "", "correo electrónico")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión y borra el token guardado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				was := e.session.IsAuthenticated()
				if err := e.session.Logout(); err != nil {
					return err
				}
				out := newPrinter(cmd.OutOrStdout())
				if was {
					out.Success("Sesión cerrada")
				} else {
					out.Muted("No había una sesión activa")
				}
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.requireSession(); err != nil {
					return err
				}
				s := e.session.Current()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"user_id":  s.UserID,
						"username": s.DisplayName(),
						"role":     s.Role,
						"admin":    e.session.IsAdmin(),
						"api":      e.cfg.API.BaseURL,
					})
				}
				out := newPrinter(cmd.OutOrStdout())
				out.Field("Usuario", s.DisplayName())
				out.Field("ID", s.UserID)
				out.Field("Rol", s.Role)
				if e.session.IsAdmin() {
					out.Field("Administrador", "sí")
				}
				out.Field("Servidor", e.cfg.API.BaseURL)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}
