package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pinchtab/translatecheck/internal/softassert"
	"github.com/pinchtab/translatecheck/internal/visual"
)

func sample() *Report {
	r := New()
	r.Driver = "chromedp"
	r.BaseURL = "https://translate.example/"
	r.Finished = r.Started.Add(1500 * time.Millisecond)
	r.Steps = []StepResult{
		{Name: "open page", Status: StepPassed, ElapsedMS: 800},
		{Name: "select source language", Status: StepFailed, ElapsedMS: 5000, Error: "timed out"},
		{Name: "select target language", Status: StepSkipped},
	}
	r.Failures = []softassert.Outcome{
		{Description: `Translation of "hello"`, Expected: "hola", Actual: "hols", Source: softassert.SourceAssert},
		{Description: "console-error", Actual: "TypeError: x is undefined", Source: softassert.SourcePageEvent},
	}
	r.Divergences = []softassert.Outcome{
		{Description: `Swap of "good morning"`, Expected: "good morning", Actual: "Good morning", Passed: true, KnownDivergence: true},
	}
	r.Screenshots = []visual.Record{
		{Name: "default", MismatchedPixels: 130, Threshold: 2, Slack: 40, CurrentPath: "cur/default-001.png", DiffPath: "cur/default-001-diff.png"},
	}
	r.HardFailure = "select source language: timed out"
	return r
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, ExitCode(nil))
	assert.Equal(t, 0, ExitCode(New()))

	tests := []struct {
		name string
		mut  func(r *Report)
	}{
		{"soft failure", func(r *Report) { r.Failures = []softassert.Outcome{{Description: "x"}} }},
		{"late failure", func(r *Report) { r.Late = []softassert.Outcome{{Description: "x"}} }},
		{"hard failure", func(r *Report) { r.HardFailure = "boom" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			tt.mut(r)
			assert.Equal(t, 1, ExitCode(r))
		})
	}

	r := New()
	r.Divergences = []softassert.Outcome{{Description: "x", Passed: true, KnownDivergence: true}}
	assert.Equal(t, 0, ExitCode(r), "known divergences never fail a run")
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	sample().Console(&buf)
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no color codes when writing to a buffer")
	for _, want := range []string{
		"(chromedp, https://translate.example/)",
		"PASS open page",
		"FAIL select source language",
		"timed out",
		"SKIP select target language",
		"diff default 130 px > 2 (slack 40)",
		"overlay: cur/default-001-diff.png",
		"Failures (2):",
		`expected: "hola"`,
		`actual:   "hols"`,
		"[page-event]",
		"Known divergences (review) (1):",
		"Hard failure: select source language: timed out",
		"FAIL 3 steps, 2 failures in 1.5s",
	} {
		assert.Contains(t, out, want)
	}
}

func TestConsoleMultilineUsesDiff(t *testing.T) {
	r := New()
	r.Failures = []softassert.Outcome{{Description: "keyboard output", Expected: "hello\nworld\n", Actual: "hello\nwrld\n"}}
	var buf bytes.Buffer
	r.Console(&buf)

	assert.Contains(t, buf.String(), "--- Expected")
	assert.Contains(t, buf.String(), "-world")
	assert.Contains(t, buf.String(), "+wrld")
}

func TestConsolePassing(t *testing.T) {
	r := New()
	r.Steps = []StepResult{{Name: "open page", Status: StepPassed}}
	var buf bytes.Buffer
	r.Console(&buf)
	assert.True(t, strings.Contains(buf.String(), "PASS 1 steps, 0 failures"), buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := sample()

	jsonPath := filepath.Join(dir, "out", "report.json")
	require.NoError(t, r.WriteFile(jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.RunID, got["runId"])
	assert.Len(t, got["failures"], 2)
	assert.Equal(t, "select source language: timed out", got["hardFailure"])

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, r.WriteFile(yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var back Report
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, StepSkipped, back.Steps[2].Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".report-"), "temp file left behind: %s", e.Name())
	}
}
