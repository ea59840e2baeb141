// Package translation checks rendered translations against expected values.
package translation

import (
	"log/slog"

	"github.com/pinchtab/translatecheck/internal/softassert"
)

// Verify compares actual to expected with exact string equality. When
// expectedToPass is false the case is a known divergence: it always passes,
// but the pair is kept so it stays visible in the report.
func Verify(expectedToPass bool, expected, actual string) softassert.Outcome {
	o := softassert.Outcome{
		Expected: expected,
		Actual:   actual,
		Source:   softassert.SourceAssert,
	}
	if expectedToPass {
		o.Passed = actual == expected
		return o
	}
	o.Passed = true
	o.KnownDivergence = true
	return o
}

// Verifier feeds Verify outcomes into an aggregator.
type Verifier struct {
	Agg *softassert.Aggregator
	Log *slog.Logger
}

func NewVerifier(agg *softassert.Aggregator, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{Agg: agg, Log: log}
}

func (v *Verifier) Check(description string, expectedToPass bool, expected, actual string) softassert.Outcome {
	o := Verify(expectedToPass, expected, actual)
	o.Description = description
	v.Agg.Record(o)

	switch {
	case !o.Passed:
		v.Log.Warn("translation mismatch", "check", description, "expected", expected, "actual", actual)
	case o.KnownDivergence:
		v.Log.Info("known divergence", "check", description, "expected", expected, "actual", actual, "equal", expected == actual)
	default:
		v.Log.Debug("translation ok", "check", description, "actual", actual)
	}
	return o
}
