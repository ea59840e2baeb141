// Package page is the element interaction layer. It wraps a live browser
// page with readiness waits so callers never act on an element that has not
// rendered yet.
package page

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Page is the narrow capability set the harness needs from a browser driver.
// Implementations live in internal/bridge (chromedp) and internal/pwdriver
// (playwright). None of the methods wait for readiness; that is the job of
// Interactor.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)

	Present(ctx context.Context, loc Locator) (bool, error)
	Visible(ctx context.Context, loc Locator) (bool, error)
	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, loc Locator, text string) error
	Text(ctx context.Context, loc Locator) (string, error)

	// Screenshot returns the current viewport encoded as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

type LocatorKind int

const (
	CSS LocatorKind = iota
	XPath
)

func (k LocatorKind) String() string {
	if k == XPath {
		return "xpath"
	}
	return "css"
}

func (k LocatorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *LocatorKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "css":
		*k = CSS
	case "xpath":
		*k = XPath
	default:
		return fmt.Errorf("unknown locator kind %q", string(b))
	}
	return nil
}

// Locator identifies an element on the page. Name is a human label used in
// logs and errors ("Swap Languages"); it falls back to Expr.
type Locator struct {
	Expr string      `json:"expr" yaml:"expr"`
	Kind LocatorKind `json:"kind" yaml:"kind"`
	Name string      `json:"name,omitempty" yaml:"name,omitempty"`
}

func ByCSS(expr, name string) Locator   { return Locator{Expr: expr, Kind: CSS, Name: name} }
func ByXPath(expr, name string) Locator { return Locator{Expr: expr, Kind: XPath, Name: name} }

func (l Locator) String() string {
	if l.Name != "" {
		return fmt.Sprintf("%s (%s %s)", l.Name, l.Kind, l.Expr)
	}
	return fmt.Sprintf("%s %s", l.Kind, l.Expr)
}

func (l Locator) IsZero() bool { return l.Expr == "" }

// Condition is the state WaitFor polls for.
type Condition int

const (
	Present Condition = iota
	Absent
	Visible
)

func (c Condition) String() string {
	switch c {
	case Absent:
		return "absent"
	case Visible:
		return "visible"
	default:
		return "present"
	}
}

// Options tunes polling. Debug loosens timing for diagnosing flaky runs.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
	Debug        bool
}

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTimeout      = 5 * time.Second
	DebugTimeout        = 7 * time.Second
)

func (o Options) normalized() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
		if o.Debug {
			o.Timeout = DebugTimeout
		}
	}
	if o.Debug {
		o.PollInterval *= 2
	}
	return o
}

// TimeoutError means an element never reached the requested condition.
type TimeoutError struct {
	Locator   Locator
	Condition Condition
	Elapsed   time.Duration
	// Last is the most recent probe error, if any probe failed outright.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s to be %s", e.Elapsed.Round(time.Millisecond), e.Locator, e.Condition)
	if e.Last != nil {
		msg += ": last probe: " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// ElementNotInteractableError wraps a readiness failure that prevented an action.
type ElementNotInteractableError struct {
	Locator Locator
	Action  string
	Err     error
}

func (e *ElementNotInteractableError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Action, e.Locator, e.Err)
}

func (e *ElementNotInteractableError) Unwrap() error { return e.Err }

// Event kinds a driver may report while a page is open.
const (
	EventException = "exception"
	EventConsole   = "console-error"
	EventDialog    = "dialog"
	EventLoadFail  = "load-failed"
)

// Event is an error-level signal raised by the page itself rather than by a
// check: an uncaught exception, a console error or a failed document load.
type Event struct {
	Kind    string
	Message string
	URL     string
}

// EventSource is implemented by drivers that can stream page events. The
// returned func stops delivery; calling it more than once is safe.
type EventSource interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}
