// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/statchat/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Muestra y modifica la configuración local",
	}
	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigPathCmd(opts),
		newConfigInitCmd(opts),
		newConfigGetCmd(opts),
		newConfigSetCmd(opts),
	)
	return cmd
}

// configPath is the file the config commands read and write.
func configPath(opts *rootOptions) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	return config.ConfigPathTOML()
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Muestra la configuración efectiva",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Muestra la ruta del archivo de configuración",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Crea un archivo de configuración con los valores por defecto",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return newUsageError("%s ya existe (usa --force para sobrescribirlo)", path)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			newPrinter(cmd.OutOrStdout()).Success("Configuración creada en " + path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "sobrescribir un archivo existente")
	return cmd
}

func newConfigGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Muestra un valor de la configuración",
		Long:  "Muestra un valor de la configuración.\n\nClaves:\n  " + strings.Join(config.Keys(), "\n  "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return newUsageError("%v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Cambia un valor de la configuración y lo guarda",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			cfg := config.Default()
			if _, err := os.Stat(path); err == nil {
				// Read the file alone so environment overrides are not persisted.
				if err := config.LoadTOML(cfg, path); err != nil {
					return fmt.Errorf("%w: %w", errConfig, err)
				}
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return newUsageError("%v", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}
			newPrinter(cmd.OutOrStdout()).Success(args[0] + " = " + args[1])
			return nil
		},
	}
}
