package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pinchtab/translatecheck/internal/human"
	pg "github.com/pinchtab/translatecheck/internal/page"
)

const readyPollInterval = 200 * time.Millisecond

// NavigatePage uses raw CDP Page.navigate + polls document.readyState for completion.
func NavigatePage(ctx context.Context, url string) error {
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, _, err := page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return fmt.Errorf("navigate %s: %s", url, errText)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}
	return waitReady(ctx)
}

// ReloadPage reloads the current document and waits for it to become ready.
func ReloadPage(ctx context.Context) error {
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.Reload().Do(ctx)
		}),
	); err != nil {
		return err
	}
	return waitReady(ctx)
}

func waitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var state string
			err := chromedp.Run(ctx,
				chromedp.Evaluate("document.readyState", &state),
			)
			if err == nil && (state == "interactive" || state == "complete") {
				return nil
			}
		}
	}
}

// SetResourceBlocking uses Network.setBlockedURLs to block resources by URL pattern.
func SetResourceBlocking(ctx context.Context, patterns []string) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(patterns) == 0 {
				return network.SetBlockedURLs([]string{}).Do(ctx)
			}
			return network.SetBlockedURLs(patterns).Do(ctx)
		}),
	)
}

// locateJS returns a JS expression yielding the first node matching loc, or null.
func locateJS(loc pg.Locator) string {
	expr, _ := json.Marshal(loc.Expr)
	if loc.Kind == pg.XPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", expr)
	}
	return fmt.Sprintf("document.querySelector(%s)", expr)
}

func presentJS(loc pg.Locator) string {
	return fmt.Sprintf("(%s) !== null", locateJS(loc))
}

func visibleJS(loc pg.Locator) string {
	return fmt.Sprintf(`(function(el) {
  if (!el) return false;
  const s = getComputedStyle(el);
  if (s.display === 'none' || s.visibility === 'hidden' || Number(s.opacity) === 0) return false;
  const r = el.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
})(%s)`, locateJS(loc))
}

func textJS(loc pg.Locator) string {
	return fmt.Sprintf(`(function(el) {
  if (!el) return {found: false, text: ""};
  if (el.tagName === 'TEXTAREA' || el.tagName === 'INPUT') return {found: true, text: el.value};
  return {found: true, text: el.innerText || el.textContent || ""};
})(%s)`, locateJS(loc))
}

// queryOpt maps a locator kind onto the chromedp selector strategy.
func queryOpt(loc pg.Locator) chromedp.QueryOption {
	if loc.Kind == pg.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (b *Bridge) Navigate(ctx context.Context, url string) error {
	nctx, cancel := context.WithTimeout(ctx, b.Config.NavigateTimeout)
	defer cancel()
	tctx, done := b.tab(nctx)
	defer done()
	b.Log.Debug("navigate", "url", url)
	if err := NavigatePage(tctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *Bridge) Reload(ctx context.Context) error {
	nctx, cancel := context.WithTimeout(ctx, b.Config.NavigateTimeout)
	defer cancel()
	tctx, done := b.tab(nctx)
	defer done()
	if err := ReloadPage(tctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (b *Bridge) Title(ctx context.Context) (string, error) {
	var title string
	err := b.run(ctx, chromedp.Title(&title))
	return title, err
}

func (b *Bridge) URL(ctx context.Context) (string, error) {
	var url string
	err := b.run(ctx, chromedp.Location(&url))
	return url, err
}

func (b *Bridge) Present(ctx context.Context, loc pg.Locator) (bool, error) {
	var ok bool
	err := b.run(ctx, chromedp.Evaluate(presentJS(loc), &ok))
	return ok, err
}

func (b *Bridge) Visible(ctx context.Context, loc pg.Locator) (bool, error) {
	var ok bool
	err := b.run(ctx, chromedp.Evaluate(visibleJS(loc), &ok))
	return ok, err
}

func (b *Bridge) Click(ctx context.Context, loc pg.Locator) error {
	if err := b.run(ctx, chromedp.Click(loc.Expr, queryOpt(loc), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return human.Pause(ctx, b.Config.SlowMo)
}

func (b *Bridge) Type(ctx context.Context, loc pg.Locator, text string) error {
	actions := []chromedp.Action{chromedp.Focus(loc.Expr, queryOpt(loc))}
	actions = append(actions, human.Type(text, b.Config.SlowMo)...)
	if err := b.run(ctx, actions...); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

func (b *Bridge) Text(ctx context.Context, loc pg.Locator) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := b.run(ctx, chromedp.Evaluate(textJS(loc), &res)); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("no element for %s", loc)
	}
	return res.Text, nil
}

// Screenshot captures the pinned viewport as PNG.
func (b *Bridge) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}
