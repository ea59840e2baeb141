package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// errRunFailed marks a run that completed but did not pass. The report has
// already been printed, so main only sets the exit status.
var errRunFailed = errors.New("run failed")

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translatecheck",
		Short: "End-to-end and visual regression checks for a translation page",
		Long: `translatecheck drives a translation web page in a real browser, checks the
translated text for a corpus of word cases and compares screenshots of the
idle page against stored baselines.

Configuration comes from TRANSLATECHECK_* environment variables layered over
an optional JSON file (TRANSLATECHECK_CONFIG).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newBaselineCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "translatecheck %s\n", version)
		},
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
