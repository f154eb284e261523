package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/validation"
)

func addConfig(topLevel *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration.",
		Example: `
fluxrd config init
fluxrd --config ./fluxrd.toml config init --force
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.DefaultPath()
			if o.configPath != "" {
				p, err := validation.ExpandPath(o.configPath)
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "source: %s\ndatabase: %s\nsearch index: %s\n",
				cfg.Source.Mode, cfg.Database.Path, cfg.Database.SearchIndex)
			return nil
		},
	}

	cmd.AddCommand(initCmd, checkCmd)
	topLevel.AddCommand(cmd)
}
