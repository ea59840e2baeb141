package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Interactor performs retry-aware element operations against a Page. It holds
// no page state of its own; the Page is passed in by the owner.
type Interactor struct {
	Page Page
	Opts Options
	Log  *slog.Logger
}

func NewInteractor(p Page, opts Options, log *slog.Logger) *Interactor {
	if log == nil {
		log = slog.Default()
	}
	return &Interactor{Page: p, Opts: opts.normalized(), Log: log}
}

// WaitFor polls until loc satisfies cond or the timeout elapses. Probe errors
// are treated as "not yet" since the DOM may be mid-render.
func (in *Interactor) WaitFor(ctx context.Context, loc Locator, cond Condition) error {
	start := time.Now()
	var last error

	check := func() bool {
		ok, err := in.probe(ctx, loc, cond)
		if err != nil {
			last = err
			return false
		}
		return ok
	}

	if check() {
		return nil
	}

	deadline := time.NewTimer(in.Opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(in.Opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &TimeoutError{Locator: loc, Condition: cond, Elapsed: time.Since(start), Last: ctx.Err()}
		case <-deadline.C:
			if check() {
				return nil
			}
			return &TimeoutError{Locator: loc, Condition: cond, Elapsed: time.Since(start), Last: last}
		case <-ticker.C:
			if check() {
				in.Log.Debug("wait satisfied", "locator", loc.String(), "cond", cond.String(), "elapsed", time.Since(start))
				return nil
			}
		}
	}
}

func (in *Interactor) probe(ctx context.Context, loc Locator, cond Condition) (bool, error) {
	switch cond {
	case Visible:
		return in.Page.Visible(ctx, loc)
	case Absent:
		ok, err := in.Page.Present(ctx, loc)
		return !ok, err
	default:
		return in.Page.Present(ctx, loc)
	}
}

// Found reports whether loc is present right now, without waiting.
func (in *Interactor) Found(ctx context.Context, loc Locator) bool {
	ok, err := in.Page.Present(ctx, loc)
	if err != nil {
		in.Log.Debug("presence probe failed", "locator", loc.String(), "err", err)
		return false
	}
	return ok
}

// Click waits for loc to be visible, then clicks it once.
func (in *Interactor) Click(ctx context.Context, loc Locator) error {
	if err := in.WaitFor(ctx, loc, Visible); err != nil {
		return &ElementNotInteractableError{Locator: loc, Action: "click", Err: err}
	}
	in.Log.Debug("click", "locator", loc.String())
	if err := in.Page.Click(ctx, loc); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// Type waits for loc to be visible, then types text into it.
func (in *Interactor) Type(ctx context.Context, loc Locator, text string) error {
	if err := in.WaitFor(ctx, loc, Visible); err != nil {
		return &ElementNotInteractableError{Locator: loc, Action: "type", Err: err}
	}
	in.Log.Debug("type", "locator", loc.String(), "text", text)
	if err := in.Page.Type(ctx, loc, text); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// TypeSequence clicks each key in order. Repeated keys are clicked repeatedly.
func (in *Interactor) TypeSequence(ctx context.Context, keys []Locator) error {
	for i, k := range keys {
		if err := in.Click(ctx, k); err != nil {
			return fmt.Errorf("key %d of %d: %w", i+1, len(keys), err)
		}
	}
	return nil
}

// ReadText waits for loc to be present and returns its rendered text.
func (in *Interactor) ReadText(ctx context.Context, loc Locator) (string, error) {
	if err := in.WaitFor(ctx, loc, Present); err != nil {
		return "", err
	}
	text, err := in.Page.Text(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("read text %s: %w", loc, err)
	}
	return text, nil
}

// ExpectTitle polls the document title until it equals want.
func (in *Interactor) ExpectTitle(ctx context.Context, want string) error {
	return in.pollValue(ctx, ByCSS("title", "page title"), want, in.Page.Title)
}

// ExpectURL polls the current URL until it equals want.
func (in *Interactor) ExpectURL(ctx context.Context, want string) error {
	return in.pollValue(ctx, Locator{Expr: "location.href", Name: "page url"}, want, in.Page.URL)
}

func (in *Interactor) pollValue(ctx context.Context, loc Locator, want string, get func(context.Context) (string, error)) error {
	start := time.Now()
	var got string
	var last error
	for {
		v, err := get(ctx)
		if err == nil && v == want {
			return nil
		}
		if err != nil {
			last = err
		} else {
			got = v
			last = fmt.Errorf("got %q, want %q", got, want)
		}
		if time.Since(start) >= in.Opts.Timeout {
			return &TimeoutError{Locator: loc, Condition: Present, Elapsed: time.Since(start), Last: last}
		}
		select {
		case <-ctx.Done():
			return &TimeoutError{Locator: loc, Condition: Present, Elapsed: time.Since(start), Last: errors.Join(last, ctx.Err())}
		case <-time.After(in.Opts.PollInterval):
		}
	}
}
