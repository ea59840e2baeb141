package bridge

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	pg "github.com/pinchtab/translatecheck/internal/page"
)

// listen attaches the single CDP listener for the tab. chromedp has no way to
// remove a listener, so delivery is gated by b.listening and the subscriber map.
func (b *Bridge) listen() {
	b.listening.Store(true)
	chromedp.ListenTarget(b.BrowserCtx, func(ev any) {
		if !b.listening.Load() {
			return
		}
		if d, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			// An open dialog blocks every further CDP call on the tab.
			go func() {
				_ = chromedp.Run(b.BrowserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
					return page.HandleJavaScriptDialog(false).Do(ctx)
				}))
			}()
			b.Log.Debug("dismissed dialog", "type", d.Type, "message", d.Message)
		}
		if e, ok := toEvent(ev); ok {
			b.dispatch(e)
		}
	})
}

// toEvent maps the CDP events the harness treats as page errors.
func toEvent(ev any) (pg.Event, bool) {
	switch e := ev.(type) {
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return pg.Event{}, false
		}
		d := e.ExceptionDetails
		msg := d.Text
		if d.Exception != nil && d.Exception.Description != "" {
			msg = d.Exception.Description
		}
		return pg.Event{Kind: pg.EventException, Message: msg, URL: d.URL}, true
	case *runtime.EventConsoleAPICalled:
		if e.Type != runtime.APITypeError {
			return pg.Event{}, false
		}
		parts := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			switch {
			case a.Description != "":
				parts = append(parts, a.Description)
			case len(a.Value) > 0:
				parts = append(parts, strings.Trim(string(a.Value), `"`))
			}
		}
		return pg.Event{Kind: pg.EventConsole, Message: strings.Join(parts, " ")}, true
	case *page.EventJavascriptDialogOpening:
		return pg.Event{Kind: pg.EventDialog, Message: e.Message, URL: e.URL}, true
	case *network.EventLoadingFailed:
		if e.Type != network.ResourceTypeDocument || e.Canceled {
			return pg.Event{}, false
		}
		return pg.Event{Kind: pg.EventLoadFail, Message: e.ErrorText}, true
	}
	return pg.Event{}, false
}

func (b *Bridge) dispatch(e pg.Event) {
	b.subMu.Lock()
	fns := make([]func(pg.Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Subscribe registers fn for page events. The returned func removes it.
func (b *Bridge) Subscribe(fn func(pg.Event)) func() {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()
	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}
