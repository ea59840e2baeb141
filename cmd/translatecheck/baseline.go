package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinchtab/translatecheck/internal/config"
	"github.com/pinchtab/translatecheck/internal/visual"
)

func newBaselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage screenshot baselines",
	}

	approve := &cobra.Command{
		Use:   "approve <name>",
		Short: "Promote the newest capture of <name> to its baseline",
		Long: `Copy the newest current capture of <name> over its baseline image.

Baselines are only ever changed by this command, never by a run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			store := visual.NewStore(cfg, newLogger(cmd.ErrOrStderr(), cfg.Debug))
			dst, err := store.Approve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s -> %s\n", args[0], dst)
			return nil
		},
	}

	cmd.AddCommand(approve)
	return cmd
}
