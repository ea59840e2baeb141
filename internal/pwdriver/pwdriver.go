// Package pwdriver implements page.Page on playwright-go. It is the
// alternative to the chromedp bridge for environments where a managed
// Playwright browser is easier to provision than a local Chrome.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"

	"github.com/pinchtab/translatecheck/internal/config"
	pg "github.com/pinchtab/translatecheck/internal/page"
)

const textScript = `el => (el.tagName === 'TEXTAREA' || el.tagName === 'INPUT') ? el.value : (el.innerText || el.textContent || "")`

type Driver struct {
	PW      *playwright.Playwright
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page
	Config  *config.RuntimeConfig
	Log     *slog.Logger

	listening atomic.Bool
	subMu     sync.Mutex
	subs      map[int]func(pg.Event)
	nextSub   int

	closeOnce sync.Once
	closeErr  error
}

func launchOptions(cfg *config.RuntimeConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     []string{fmt.Sprintf("--window-size=%d,%d", cfg.WindowWidth, cfg.WindowHeight)},
	}
	if cfg.ChromeBinary != "" {
		opts.ExecutablePath = playwright.String(cfg.ChromeBinary)
	}
	opts.Args = append(opts.Args, strings.Fields(cfg.ChromeExtraFlags)...)
	return opts
}

func contextOptions(cfg *config.RuntimeConfig) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
	}
	if cfg.NoAnimations {
		opts.ReducedMotion = playwright.ReducedMotionReduce
	}
	return opts
}

// Launch starts Playwright's Chromium and opens one page with the pinned viewport.
func Launch(cfg *config.RuntimeConfig, log *slog.Logger) (*Driver, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Info("starting playwright", "headless", cfg.Headless)

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(launchOptions(cfg))
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	bctx, err := browser.NewContext(contextOptions(cfg))
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new context: %w", err)
	}
	p, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	p.SetDefaultTimeout(float64(cfg.NavigateTimeout.Milliseconds()))

	d := &Driver{PW: pw, Browser: browser, Context: bctx, Page: p, Config: cfg, Log: log, subs: make(map[int]func(pg.Event))}
	d.listen()
	return d, nil
}

// selector maps a locator onto Playwright's engine prefix syntax.
func selector(loc pg.Locator) string {
	if loc.Kind == pg.XPath {
		return "xpath=" + loc.Expr
	}
	return "css=" + loc.Expr
}

func (d *Driver) locate(loc pg.Locator) playwright.Locator {
	return d.Page.Locator(selector(loc)).First()
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Log.Debug("navigate", "url", url)
	_, err := d.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(d.Config.NavigateTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *Driver) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.Page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.Page.Title()
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.Page.URL(), nil
}

func (d *Driver) Present(ctx context.Context, loc pg.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := d.Page.Locator(selector(loc)).Count()
	return n > 0, err
}

func (d *Driver) Visible(ctx context.Context, loc pg.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.locate(loc).IsVisible()
}

func (d *Driver) Click(ctx context.Context, loc pg.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.locate(loc).Click(); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (d *Driver) Type(ctx context.Context, loc pg.Locator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.locate(loc).PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(d.Config.SlowMo.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

func (d *Driver) Text(ctx context.Context, loc pg.Locator) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := d.locate(loc).Evaluate(textScript, nil)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc, err)
	}
	s, _ := v.(string)
	return s, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := d.Page.Screenshot(playwright.PageScreenshotOptions{
		Type:       playwright.ScreenshotTypePng,
		Animations: playwright.ScreenshotAnimationsDisabled,
		Caret:      playwright.ScreenshotCaretHide,
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.listening.Store(false)
		var errs []error
		if d.Browser != nil {
			errs = append(errs, d.Browser.Close())
		}
		if d.PW != nil {
			errs = append(errs, d.PW.Stop())
		}
		d.closeErr = errors.Join(errs...)
		d.Log.Debug("playwright closed", "err", d.closeErr)
	})
	return d.closeErr
}

var (
	_ pg.Page        = (*Driver)(nil)
	_ pg.EventSource = (*Driver)(nil)
)
