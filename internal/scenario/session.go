// Package scenario runs an ordered plan of steps against one page session
// and guarantees teardown whatever the steps do.
package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pinchtab/translatecheck/internal/config"
	"github.com/pinchtab/translatecheck/internal/page"
	"github.com/pinchtab/translatecheck/internal/softassert"
	"github.com/pinchtab/translatecheck/internal/translation"
	"github.com/pinchtab/translatecheck/internal/visual"
)

// Session is the state one run owns: the page handle and everything that
// observes it. Steps receive it by pointer and must not retain it.
type Session struct {
	Page   page.Page
	UI     *page.Interactor
	Agg    *softassert.Aggregator
	Verify *translation.Verifier
	Shots  *visual.Store
	Config *config.RuntimeConfig
	Log    *slog.Logger

	records     []visual.Record
	unsubscribe func()
}

func NewSession(p page.Page, cfg *config.RuntimeConfig, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	agg := softassert.New(log)
	return &Session{
		Page:   p,
		UI:     page.NewInteractor(p, page.Options{PollInterval: cfg.PollInterval, Timeout: cfg.WaitTimeout}, log),
		Agg:    agg,
		Verify: translation.NewVerifier(agg, log),
		Shots:  visual.NewStore(cfg, log),
		Config: cfg,
		Log:    log,
	}
}

// subscribe funnels page-level errors into the aggregator for drivers that
// can report them.
func (s *Session) subscribe() {
	src, ok := s.Page.(page.EventSource)
	if !ok {
		s.Log.Debug("page driver has no event stream")
		return
	}
	s.unsubscribe = src.Subscribe(s.onEvent)
}

func (s *Session) onEvent(e page.Event) {
	if e.Kind == page.EventDialog {
		s.Log.Info("page dialog dismissed", "message", e.Message, "url", e.URL)
		return
	}
	s.Log.Warn("page error", "kind", e.Kind, "message", e.Message, "url", e.URL)
	actual := e.Message
	if e.URL != "" {
		actual = fmt.Sprintf("%s (%s)", e.Message, e.URL)
	}
	s.Agg.Record(softassert.Outcome{
		Description: "page " + e.Kind,
		Actual:      actual,
		Source:      softassert.SourcePageEvent,
	})
}

// teardown releases the session in order: stop events, close the page.
func (s *Session) teardown() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if err := s.Page.Close(); err != nil {
		s.Log.Warn("close page", "err", err)
		return err
	}
	return nil
}

// CaptureAndCompare takes a screenshot named name and, when diffing is on,
// compares it against its baseline. A mismatch over the threshold is a soft
// failure; a missing baseline or a size change is returned as an error.
func (s *Session) CaptureAndCompare(ctx context.Context, name string, opts visual.CompareOptions) error {
	if !s.Config.CaptureEnabled() {
		return nil
	}
	path, err := s.Shots.Capture(ctx, s.Page, name)
	if err != nil {
		return err
	}
	if !s.Config.DiffEnabled() {
		return nil
	}

	rec, err := s.Shots.Compare(path, name, opts)
	s.records = append(s.records, rec)
	if err != nil {
		return err
	}
	o := softassert.Outcome{
		Description: "screenshot " + name,
		Passed:      rec.Passed,
		Expected:    fmt.Sprintf("at most %d mismatched pixels", rec.Threshold),
		Actual:      fmt.Sprintf("%d mismatched pixels", rec.MismatchedPixels),
	}
	if rec.DiffPath != "" {
		o.Actual += " (" + rec.DiffPath + ")"
	}
	s.Agg.Record(o)
	return nil
}

// Screenshots returns the comparison records made so far.
func (s *Session) Screenshots() []visual.Record {
	return append([]visual.Record(nil), s.records...)
}
