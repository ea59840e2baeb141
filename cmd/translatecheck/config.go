package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinchtab/translatecheck/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			config.Show(config.Load(), cmd.OutOrStdout())
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to TRANSLATECHECK_CONFIG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path := config.ConfigPath()
			if err := config.InitFile(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
