package bridge

import (
	"context"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DisableAnimationsCSS freezes CSS animations, transitions and the text caret
// so consecutive captures of the same state render identically.
const DisableAnimationsCSS = `
(function() {
  const style = document.createElement('style');
  style.setAttribute('data-translatecheck', 'no-animations');
  style.textContent = '*, *::before, *::after { animation: none !important; animation-duration: 0s !important; transition: none !important; transition-duration: 0s !important; scroll-behavior: auto !important; caret-color: transparent !important; }';
  (document.head || document.documentElement).appendChild(style);
})();
`

var reducedMotion = []*emulation.MediaFeature{
	{Name: "prefers-reduced-motion", Value: "reduce"},
}

// InjectNoAnimations registers DisableAnimationsCSS for every document the
// tab loads. Failures are logged; an animated page is still testable, just
// with looser screenshot tolerances.
func (b *Bridge) InjectNoAnimations(ctx context.Context) {
	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(DisableAnimationsCSS).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetEmulatedMedia().WithFeatures(reducedMotion).Do(ctx)
		}),
	); err != nil {
		b.Log.Warn("animation suppression failed", "err", err)
	}
}
