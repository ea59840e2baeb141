// Package softassert records check outcomes that must not abort a scenario
// and surfaces the collected failures at teardown.
package softassert

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	SourceAssert    = "assert"
	SourcePageEvent = "page-event"
)

// Outcome is the result of one check.
type Outcome struct {
	Description     string    `json:"description" yaml:"description"`
	Passed          bool      `json:"passed" yaml:"passed"`
	Actual          string    `json:"actual" yaml:"actual"`
	Expected        string    `json:"expected" yaml:"expected"`
	KnownDivergence bool      `json:"knownDivergence,omitempty" yaml:"knownDivergence,omitempty"`
	Source          string    `json:"source,omitempty" yaml:"source,omitempty"`
	At              time.Time `json:"at" yaml:"at"`
}

func (o Outcome) Error() string {
	if o.Source == SourcePageEvent {
		return fmt.Sprintf("%s: %s", o.Description, o.Actual)
	}
	return fmt.Sprintf("%s: expected %q, got %q", o.Description, o.Expected, o.Actual)
}

type State int

const (
	Empty State = iota
	Recording
	Drained
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Drained:
		return "drained"
	default:
		return "empty"
	}
}

// Aggregator is an append-only log of outcomes for one run. Record is safe
// to call from page event listeners running on other goroutines.
type Aggregator struct {
	mu       sync.Mutex
	state    State
	history  []Outcome
	failures []Outcome
	late     []Outcome
	log      *slog.Logger
}

func New(log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{log: log}
}

// Record stores o. It never fails; failing outcomes are kept for Drain.
func (a *Aggregator) Record(o Outcome) {
	if o.At.IsZero() {
		o.At = time.Now()
	}
	if o.Source == "" {
		o.Source = SourceAssert
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, o)
	if o.Passed {
		if a.state == Empty {
			a.state = Recording
		}
		return
	}
	if a.state == Drained {
		// The log was already handed to the report; keep it where Late can see it.
		a.late = append(a.late, o)
		a.log.Warn("soft failure recorded after drain", "desc", o.Description, "actual", o.Actual)
		return
	}
	a.state = Recording
	a.failures = append(a.failures, o)
}

// Drain returns the ordered failures and moves to Drained. Later calls
// return an empty slice.
func (a *Aggregator) Drain() []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Drained {
		return []Outcome{}
	}
	a.state = Drained
	out := a.failures
	a.failures = nil
	if out == nil {
		out = []Outcome{}
	}
	return out
}

// Late returns failures recorded after Drain.
func (a *Aggregator) Late() []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Outcome(nil), a.late...)
}

// History returns every recorded outcome, passing ones included.
func (a *Aggregator) History() []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Outcome(nil), a.history...)
}

// KnownDivergences returns outcomes that passed only because they were
// marked as expected to diverge.
func (a *Aggregator) KnownDivergences() []Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Outcome
	for _, o := range a.history {
		if o.KnownDivergence && o.Actual != o.Expected {
			out = append(out, o)
		}
	}
	return out
}

func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Len is the number of pending (undrained) failures.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.failures)
}

func (a *Aggregator) Failed() bool { return a.Len() > 0 }

// Err joins the given failures into one error, or nil.
func Err(failures []Outcome) error {
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
