// Package pagetest provides a scriptable in-memory page.Page for tests.
package pagetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinchtab/translatecheck/internal/page"
)

// Element is the fake DOM state for one locator expression.
type Element struct {
	Present bool
	Hidden  bool
	Text    string
	// AppearAfter delays presence until the element has been probed this many times.
	AppearAfter int

	probes int
}

// Fake is a page.Page backed by a map of locator expressions. OnClick and
// OnType hooks let tests mutate the fake DOM the way a real page would react.
type Fake struct {
	mu sync.Mutex

	Elements map[string]*Element
	TitleVal string
	URLVal   string
	Shot     []byte

	OnClick  func(f *Fake, loc page.Locator)
	OnType   func(f *Fake, loc page.Locator, text string)
	OnReload func(f *Fake)

	Calls  []string
	Closed bool
	Err    error

	listeners map[int]func(page.Event)
	nextID    int
}

func New() *Fake {
	return &Fake{Elements: make(map[string]*Element)}
}

// Set creates or replaces a visible, present element with the given text.
func (f *Fake) Set(expr, text string) *Element {
	e := &Element{Present: true, Text: text}
	f.Elements[expr] = e
	return e
}

func (f *Fake) Remove(expr string) { delete(f.Elements, expr) }

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) lookup(loc page.Locator) (*Element, bool) {
	e, ok := f.Elements[loc.Expr]
	if !ok {
		return nil, false
	}
	e.probes++
	if e.AppearAfter > 0 && e.probes <= e.AppearAfter {
		return e, false
	}
	return e, e.Present
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate %s", url)
	if f.Err != nil {
		return f.Err
	}
	f.URLVal = url
	return nil
}

func (f *Fake) Reload(context.Context) error {
	f.mu.Lock()
	hook := f.OnReload
	f.record("reload")
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *Fake) Title(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TitleVal, nil
}

func (f *Fake) URL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URLVal, nil
}

func (f *Fake) Present(_ context.Context, loc page.Locator) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.lookup(loc)
	return ok, nil
}

func (f *Fake) Visible(_ context.Context, loc page.Locator) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.lookup(loc)
	return ok && !e.Hidden, nil
}

func (f *Fake) Click(_ context.Context, loc page.Locator) error {
	f.mu.Lock()
	f.record("click %s", loc.Expr)
	hook := f.OnClick
	f.mu.Unlock()
	if hook != nil {
		hook(f, loc)
	}
	return nil
}

func (f *Fake) Type(_ context.Context, loc page.Locator, text string) error {
	f.mu.Lock()
	f.record("type %s %q", loc.Expr, text)
	hook := f.OnType
	f.mu.Unlock()
	if hook != nil {
		hook(f, loc, text)
	}
	return nil
}

func (f *Fake) Text(_ context.Context, loc page.Locator) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.Elements[loc.Expr]
	if !ok {
		return "", fmt.Errorf("no element %s", loc.Expr)
	}
	return e.Text, nil
}

func (f *Fake) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("screenshot")
	return f.Shot, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close")
	f.Closed = true
	return nil
}

func (f *Fake) Subscribe(fn func(page.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listeners == nil {
		f.listeners = make(map[int]func(page.Event))
	}
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Emit delivers ev to every current subscriber.
func (f *Fake) Emit(ev page.Event) {
	f.mu.Lock()
	fns := make([]func(page.Event), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers reports how many listeners are attached.
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

var (
	_ page.Page        = (*Fake)(nil)
	_ page.EventSource = (*Fake)(nil)
)
