package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pinchtab/translatecheck/internal/report"
	"github.com/pinchtab/translatecheck/internal/softassert"
	"github.com/pinchtab/translatecheck/internal/visual"
)

type Step struct {
	Name string
	Run  func(ctx context.Context, s *Session) error
}

// AssertionError is a failed equality check that the scenario cannot
// continue past, unlike a soft translation check.
type AssertionError struct {
	Description string
	Expected    string
	Actual      string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.Description, e.Expected, e.Actual)
}

func expectEqual(description, expected, actual string) error {
	if expected != actual {
		return &AssertionError{Description: description, Expected: expected, Actual: actual}
	}
	return nil
}

// StepError ties a hard failure to the step that raised it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StepError) Unwrap() error { return e.Err }

type Result struct {
	Started     time.Time
	Finished    time.Time
	Steps       []report.StepResult
	Failures    []softassert.Outcome
	Late        []softassert.Outcome
	Divergences []softassert.Outcome
	Screenshots []visual.Record
	// Hard is the first step error, if any. Later steps were skipped.
	Hard error
}

func (r Result) Passed() bool {
	return r.Hard == nil && len(r.Failures) == 0 && len(r.Late) == 0
}

// Fill copies the result into rep.
func (r Result) Fill(rep *report.Report) {
	rep.Started = r.Started
	rep.Finished = r.Finished
	rep.Steps = r.Steps
	rep.Failures = r.Failures
	rep.Late = r.Late
	rep.Divergences = r.Divergences
	rep.Screenshots = r.Screenshots
	if r.Hard != nil {
		rep.HardFailure = r.Hard.Error()
	}
}

type Runner struct {
	Log *slog.Logger
}

func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{Log: log}
}

// Run executes plan in order against s. After the first hard error the rest
// of the plan is skipped. Teardown (unsubscribe, close, drain) always runs,
// including after a panic in a step.
func (r *Runner) Run(ctx context.Context, s *Session, plan []Step) (res Result) {
	res.Started = time.Now()
	s.subscribe()

	defer func() {
		if err := s.teardown(); err != nil && res.Hard == nil {
			res.Hard = fmt.Errorf("teardown: %w", err)
		}
		res.Failures = s.Agg.Drain()
		res.Late = s.Agg.Late()
		res.Divergences = s.Agg.KnownDivergences()
		res.Screenshots = s.Screenshots()
		res.Finished = time.Now()
		r.Log.Info("run finished",
			"steps", len(res.Steps),
			"failures", len(res.Failures),
			"hard", res.Hard != nil,
			"elapsed", res.Finished.Sub(res.Started).Round(time.Millisecond))
	}()

	for _, step := range plan {
		if res.Hard != nil {
			res.Steps = append(res.Steps, report.StepResult{Name: step.Name, Status: report.StepSkipped})
			r.Log.Info("step skipped", "step", step.Name)
			continue
		}
		res.Steps = append(res.Steps, r.runStep(ctx, s, step, &res.Hard))
	}
	return res
}

func (r *Runner) runStep(ctx context.Context, s *Session, step Step, hard *error) report.StepResult {
	r.Log.Info("step start", "step", step.Name)
	start := time.Now()
	err := safeRun(ctx, s, step)
	elapsed := time.Since(start)

	sr := report.StepResult{Name: step.Name, Status: report.StepPassed, ElapsedMS: elapsed.Milliseconds()}
	if err != nil {
		sr.Status = report.StepFailed
		sr.Error = err.Error()
		*hard = &StepError{Step: step.Name, Err: err}
		r.Log.Error("step failed", "step", step.Name, "elapsed", elapsed.Round(time.Millisecond), "err", err)
		return sr
	}
	r.Log.Info("step done", "step", step.Name, "elapsed", elapsed.Round(time.Millisecond))
	return sr
}

func safeRun(ctx context.Context, s *Session, step Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return step.Run(ctx, s)
}
