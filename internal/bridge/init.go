package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pinchtab/translatecheck/internal/config"
)

const chromeStartTimeout = 30 * time.Second

// Launch starts (or attaches to) Chrome and prepares one tab for the run.
func Launch(ctx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) (*Bridge, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("starting chrome", "headless", cfg.Headless, "binary", cfg.ChromeBinary, "remote", cfg.CdpURL != "")

	allocCtx, allocCancel, err := setupAllocator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	browserCtx, browserCancel, err := startChrome(allocCtx)
	if err != nil {
		allocCancel()
		log.Error("chrome initialization failed", "err", err)
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	b := New(allocCtx, browserCtx, cfg, log)
	b.AllocCancel = allocCancel
	b.BrowserCancel = browserCancel

	if err := b.tabSetup(browserCtx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("tab setup: %w", err)
	}
	b.listen()

	log.Info("chrome ready", "viewport", fmt.Sprintf("%dx%d", cfg.ViewportWidth, cfg.ViewportHeight))
	return b, nil
}

func setupAllocator(ctx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) (context.Context, context.CancelFunc, error) {
	if cfg.CdpURL != "" {
		log.Info("connecting to Chrome", "url", cfg.CdpURL)
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := ProbeRemote(pctx, cfg.CdpURL)
		cancel()
		if err != nil {
			return nil, nil, fmt.Errorf("remote chrome at %s: %w", cfg.CdpURL, err)
		}
		actx, acancel := chromedp.NewRemoteAllocator(ctx, cfg.CdpURL)
		return actx, acancel, nil
	}

	actx, acancel := chromedp.NewExecAllocator(ctx, buildChromeOpts(cfg)...)
	return actx, acancel, nil
}

func buildChromeOpts(cfg *config.RuntimeConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-session-crashed-bubble", true),
		chromedp.Flag("hide-crash-restore-bubble", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("font-render-hinting", "none"),

		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}

	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	opts = append(opts, extraFlags(cfg.ChromeExtraFlags)...)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	return opts
}

// flagPair is a parsed --key[=value] switch.
type flagPair struct {
	Name  string
	Value any
}

func parseFlags(s string) []flagPair {
	var out []flagPair
	for _, f := range strings.Fields(s) {
		if k, v, ok := strings.Cut(f, "="); ok {
			out = append(out, flagPair{strings.TrimLeft(k, "-"), v})
		} else {
			out = append(out, flagPair{strings.TrimLeft(f, "-"), true})
		}
	}
	return out
}

func extraFlags(s string) []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption
	for _, f := range parseFlags(s) {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	return opts
}

func startChrome(allocCtx context.Context) (context.Context, context.CancelFunc, error) {
	bCtx, bCancel := chromedp.NewContext(allocCtx)

	startCtx, startDone := context.WithTimeout(context.Background(), chromeStartTimeout)
	defer startDone()

	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(bCtx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			bCancel()
			return nil, nil, err
		}
		return bCtx, bCancel, nil
	case <-startCtx.Done():
		bCancel()
		return nil, nil, fmt.Errorf("timed out after %s", chromeStartTimeout)
	}
}
