// Package bridge drives Chrome over the DevTools protocol with chromedp and
// exposes the result as a page.Page.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pinchtab/translatecheck/internal/config"
	pg "github.com/pinchtab/translatecheck/internal/page"
)

type Bridge struct {
	AllocCtx      context.Context
	AllocCancel   context.CancelFunc
	BrowserCtx    context.Context
	BrowserCancel context.CancelFunc
	Config        *config.RuntimeConfig
	Log           *slog.Logger

	listening atomic.Bool
	subMu     sync.Mutex
	subs      map[int]func(pg.Event)
	nextSub   int

	closeOnce sync.Once
	closeErr  error
}

// cancelBrowser closes the browser owned by a chromedp context and waits for
// it to exit.
var cancelBrowser = chromedp.Cancel

func New(allocCtx, browserCtx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		AllocCtx:   allocCtx,
		BrowserCtx: browserCtx,
		Config:     cfg,
		Log:        log,
		subs:       make(map[int]func(pg.Event)),
	}
}

// tabSetup pins the viewport and applies the per-page stabilizers before the
// first navigation.
func (b *Bridge) tabSetup(ctx context.Context) error {
	cfg := b.Config
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.Enable().Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDeviceMetricsOverride(int64(cfg.ViewportWidth), int64(cfg.ViewportHeight), 1, false).Do(ctx)
		}),
	); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	if cfg.NoAnimations {
		b.InjectNoAnimations(ctx)
	}
	if patterns := blockPatterns(cfg); len(patterns) > 0 {
		if err := SetResourceBlocking(ctx, patterns); err != nil {
			b.Log.Warn("resource blocking failed", "err", err)
		} else {
			b.Log.Debug("resource blocking", "patterns", len(patterns))
		}
	}
	return nil
}

func blockPatterns(cfg *config.RuntimeConfig) []string {
	if cfg.BlockTrackers {
		return CombineBlockPatterns(AdBlockPatterns, cfg.BlockPatterns)
	}
	return CombineBlockPatterns(cfg.BlockPatterns)
}

// tab derives a chromedp context for one call that is cancelled when either
// the browser or the caller's ctx is done.
func (b *Bridge) tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithCancel(b.BrowserCtx)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

func (b *Bridge) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := b.tab(ctx)
	defer cancel()
	if err := chromedp.Run(tctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Close stops event delivery and shuts the tab and browser down. A browser we
// launched is closed gracefully and its error returned. A remote browser is
// left running. It is safe to call more than once.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.listening.Store(false)
		b.subMu.Lock()
		clear(b.subs)
		b.subMu.Unlock()
		if b.owned() {
			if err := cancelBrowser(b.BrowserCtx); err != nil && !errors.Is(err, context.Canceled) {
				b.closeErr = fmt.Errorf("close browser: %w", err)
			}
		}
		if b.BrowserCancel != nil {
			b.BrowserCancel()
		}
		if b.AllocCancel != nil {
			b.AllocCancel()
		}
		b.Log.Debug("browser closed", "err", b.closeErr)
	})
	return b.closeErr
}

func (b *Bridge) owned() bool {
	if b.BrowserCtx == nil || chromedp.FromContext(b.BrowserCtx) == nil {
		return false
	}
	return b.Config == nil || b.Config.CdpURL == ""
}

var (
	_ pg.Page        = (*Bridge)(nil)
	_ pg.EventSource = (*Bridge)(nil)
)
