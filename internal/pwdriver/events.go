package pwdriver

import (
	"github.com/playwright-community/playwright-go"

	pg "github.com/pinchtab/translatecheck/internal/page"
)

func (d *Driver) listen() {
	d.listening.Store(true)
	d.Page.OnPageError(func(err error) {
		d.dispatch(pg.Event{Kind: pg.EventException, Message: err.Error(), URL: d.Page.URL()})
	})
	d.Page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() == "error" {
			d.dispatch(pg.Event{Kind: pg.EventConsole, Message: msg.Text()})
		}
	})
	d.Page.OnDialog(func(dlg playwright.Dialog) {
		d.dispatch(pg.Event{Kind: pg.EventDialog, Message: dlg.Message(), URL: d.Page.URL()})
		_ = dlg.Dismiss()
	})
	d.Page.OnRequestFailed(func(req playwright.Request) {
		if !req.IsNavigationRequest() {
			return
		}
		msg := "request failed"
		if err := req.Failure(); err != nil {
			msg = err.Error()
		}
		d.dispatch(pg.Event{Kind: pg.EventLoadFail, Message: msg, URL: req.URL()})
	})
}

func (d *Driver) dispatch(e pg.Event) {
	if !d.listening.Load() {
		return
	}
	d.subMu.Lock()
	fns := make([]func(pg.Event), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Subscribe registers fn for page events. The returned func removes it.
func (d *Driver) Subscribe(fn func(pg.Event)) func() {
	d.subMu.Lock()
	if d.subs == nil {
		d.subs = make(map[int]func(pg.Event))
	}
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.subMu.Unlock()
	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}
