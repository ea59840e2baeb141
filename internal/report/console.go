package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/pinchtab/translatecheck/internal/softassert"
)

type styles struct {
	err     *color.Color
	success *color.Color
	alert   *color.Color
	faint   *color.Color
	bold    *color.Color
}

func newStyles(colored bool) styles {
	s := styles{
		err:     color.New(color.Bold, color.FgRed),
		success: color.New(color.FgGreen),
		alert:   color.New(color.FgYellow),
		faint:   color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.err, s.success, s.alert, s.faint, s.bold} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Console prints a human summary. Colors are used only when w is a terminal.
func (r *Report) Console(w io.Writer) {
	st := newStyles(isTerminal(w))

	st.bold.Fprintf(w, "run %s", r.RunID)
	if r.Driver != "" || r.BaseURL != "" {
		fmt.Fprintf(w, " (%s, %s)", r.Driver, r.BaseURL)
	}
	fmt.Fprintln(w)

	for _, s := range r.Steps {
		elapsed := (time.Duration(s.ElapsedMS) * time.Millisecond).String()
		switch s.Status {
		case StepPassed:
			st.success.Fprintf(w, "  PASS ")
			fmt.Fprintf(w, "%s %s\n", s.Name, st.faint.Sprint(elapsed))
		case StepFailed:
			st.err.Fprintf(w, "  FAIL ")
			fmt.Fprintf(w, "%s %s\n", s.Name, st.faint.Sprint(elapsed))
			if s.Error != "" {
				fmt.Fprintf(w, "       %s\n", s.Error)
			}
		default:
			st.alert.Fprintf(w, "  SKIP ")
			fmt.Fprintln(w, s.Name)
		}
	}

	if len(r.Screenshots) > 0 {
		fmt.Fprintln(w)
		st.bold.Fprintln(w, "Screenshots:")
		for _, sc := range r.Screenshots {
			if sc.Passed {
				st.success.Fprintf(w, "  ok   ")
				fmt.Fprintf(w, "%s %d px (threshold %d, slack %d)\n", sc.Name, sc.MismatchedPixels, sc.Threshold, sc.Slack)
				continue
			}
			st.err.Fprintf(w, "  diff ")
			fmt.Fprintf(w, "%s %d px > %d (slack %d)\n", sc.Name, sc.MismatchedPixels, sc.Threshold, sc.Slack)
			fmt.Fprintf(w, "       current: %s\n", sc.CurrentPath)
			if sc.DiffPath != "" {
				fmt.Fprintf(w, "       overlay: %s\n", sc.DiffPath)
			}
		}
	}

	printOutcomes(w, st, st.err, fmt.Sprintf("Failures (%d):", len(r.Failures)), r.Failures)
	printOutcomes(w, st, st.err, fmt.Sprintf("Late failures (%d):", len(r.Late)), r.Late)
	printOutcomes(w, st, st.alert, fmt.Sprintf("Known divergences (review) (%d):", len(r.Divergences)), r.Divergences)

	if r.HardFailure != "" {
		fmt.Fprintln(w)
		st.err.Fprint(w, "Hard failure: ")
		fmt.Fprintln(w, r.HardFailure)
	}

	fmt.Fprintln(w)
	if r.Passed() {
		st.success.Fprintf(w, "PASS")
	} else {
		st.err.Fprintf(w, "FAIL")
	}
	fmt.Fprintf(w, " %d steps, %d failures in %s\n", len(r.Steps), len(r.Failures)+len(r.Late), r.Elapsed().Round(time.Millisecond))
}

func printOutcomes(w io.Writer, st styles, heading *color.Color, title string, outcomes []softassert.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
	for i, o := range outcomes {
		fmt.Fprintf(w, "  %d. %s", i+1, o.Description)
		if o.Source == softassert.SourcePageEvent {
			fmt.Fprintf(w, " %s\n", st.faint.Sprint("[page-event]"))
			fmt.Fprintf(w, "     %s\n", o.Actual)
			continue
		}
		fmt.Fprintln(w)
		if strings.Contains(o.Expected, "\n") || strings.Contains(o.Actual, "\n") {
			fmt.Fprint(w, indent(Diff(o.Expected, o.Actual), "     "))
			continue
		}
		fmt.Fprintf(w, "     expected: %q\n", o.Expected)
		fmt.Fprintf(w, "     actual:   %q\n", o.Actual)
	}
}

// Diff renders a unified diff of two multi-line values.
func Diff(expected, actual string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  3,
	})
	return diff
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(l)
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
