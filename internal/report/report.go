// Package report renders the outcome of a run for people (console) and for
// tooling (JSON or YAML file), and maps it to a process exit status.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pinchtab/translatecheck/internal/softassert"
	"github.com/pinchtab/translatecheck/internal/visual"
)

type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	Name      string     `json:"name" yaml:"name"`
	Status    StepStatus `json:"status" yaml:"status"`
	ElapsedMS int64      `json:"elapsedMs" yaml:"elapsedMs"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty"`
}

type Report struct {
	RunID       string               `json:"runId" yaml:"runId"`
	Driver      string               `json:"driver,omitempty" yaml:"driver,omitempty"`
	BaseURL     string               `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Started     time.Time            `json:"started" yaml:"started"`
	Finished    time.Time            `json:"finished" yaml:"finished"`
	Steps       []StepResult         `json:"steps" yaml:"steps"`
	Failures    []softassert.Outcome `json:"failures" yaml:"failures"`
	Late        []softassert.Outcome `json:"lateFailures,omitempty" yaml:"lateFailures,omitempty"`
	Divergences []softassert.Outcome `json:"knownDivergences,omitempty" yaml:"knownDivergences,omitempty"`
	Screenshots []visual.Record      `json:"screenshots,omitempty" yaml:"screenshots,omitempty"`
	HardFailure string               `json:"hardFailure,omitempty" yaml:"hardFailure,omitempty"`
}

func New() *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
}

// Passed is true only when nothing failed: no soft failures, no failures
// recorded after the drain and no hard failure.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0 && len(r.Late) == 0 && r.HardFailure == ""
}

func ExitCode(r *Report) int {
	if r == nil || !r.Passed() {
		return 1
	}
	return 0
}

func (r *Report) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

// WriteFile writes the report as YAML for .yaml/.yml paths and JSON otherwise.
func (r *Report) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return atomicWrite(path, data)
}

// atomicWrite writes through a temp file and rename so a reader never sees a
// partial report.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
