package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinchtab/translatecheck/internal/bridge"
	"github.com/pinchtab/translatecheck/internal/config"
	"github.com/pinchtab/translatecheck/internal/corpus"
	"github.com/pinchtab/translatecheck/internal/page"
	"github.com/pinchtab/translatecheck/internal/pwdriver"
	"github.com/pinchtab/translatecheck/internal/report"
	"github.com/pinchtab/translatecheck/internal/runlock"
	"github.com/pinchtab/translatecheck/internal/scenario"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the translation scenario",
		Long: `Run the translation scenario against the configured page.

The exit status is 0 only when every check passed: no soft failures, no
failures reported after teardown and no hard step failure.

Examples:
  translatecheck run
  translatecheck run --corpus testdata/translate.yaml --report out/report.json
  translatecheck run --headed --debug`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}
	cmd.Flags().String("corpus", "", "Corpus file, .json or .yaml (default from TRANSLATECHECK_CORPUS)")
	cmd.Flags().String("report", "", "Write a JSON or YAML report to this path")
	cmd.Flags().String("driver", "", "Browser driver: chromedp or playwright")
	cmd.Flags().Bool("headed", false, "Show the browser window")
	cmd.Flags().Bool("debug", false, "Debug logging and looser timing")
	return cmd
}

// applyRunFlags overlays explicitly set flags on cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.RuntimeConfig) {
	flags := cmd.Flags()
	if flags.Changed("corpus") {
		cfg.CorpusPath, _ = flags.GetString("corpus")
	}
	if flags.Changed("report") {
		cfg.ReportPath, _ = flags.GetString("report")
	}
	if flags.Changed("driver") {
		cfg.Driver, _ = flags.GetString("driver")
	}
	if headed, _ := flags.GetBool("headed"); headed {
		cfg.Headless = false
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.SetDebug(true)
	}
}

func runCommand(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	applyRunFlags(cmd, cfg)

	log := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	slog.SetDefault(log)

	lock, err := runlock.Acquire(cfg.CurrentDir())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("release run lock", "err", err)
		}
	}()

	c, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return err
	}
	log.Info("corpus loaded", "path", cfg.CorpusPath, "cases", len(c.Text),
		"source", c.Languages.Source.Lang, "target", c.Languages.Target.Lang)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := report.New()
	rep.Driver = cfg.Driver
	rep.BaseURL = cfg.BaseURL
	if c.BaseURL != "" {
		rep.BaseURL = c.BaseURL
	}

	p, err := openPage(ctx, cfg, log)
	if err != nil {
		rep.HardFailure = fmt.Sprintf("launch %s: %v", cfg.Driver, err)
		rep.Finished = time.Now()
	} else {
		s := scenario.NewSession(p, cfg, log)
		res := scenario.NewRunner(log).Run(ctx, s, scenario.TranslatePlan(c, cfg))
		res.Fill(rep)
	}
	return finish(cmd, cfg, rep, log)
}

// finish prints the report, writes the report file if one is configured and
// maps the outcome to errRunFailed.
func finish(cmd *cobra.Command, cfg *config.RuntimeConfig, rep *report.Report, log *slog.Logger) error {
	rep.Console(cmd.OutOrStdout())
	if cfg.ReportPath != "" {
		if err := rep.WriteFile(cfg.ReportPath); err != nil {
			log.Error("write report", "path", cfg.ReportPath, "err", err)
			return err
		}
		log.Info("report written", "path", cfg.ReportPath)
	}
	if report.ExitCode(rep) != 0 {
		return errRunFailed
	}
	return nil
}

// openPage starts the configured driver and returns its page.
func openPage(ctx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) (page.Page, error) {
	switch cfg.Driver {
	case config.DriverChromedp, "":
		b, err := bridge.Launch(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DriverPlaywright:
		d, err := pwdriver.Launch(cfg, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errors.New("unknown driver " + cfg.Driver + " (want chromedp or playwright)")
	}
}
