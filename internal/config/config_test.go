package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	key := "TRANSLATECHECK_TEST_ENV"
	fallback := "default"

	t.Setenv(key, "")
	if got := envOr(key, fallback); got != fallback {
		t.Errorf("envOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "set")
	if got := envOr(key, fallback); got != "set" {
		t.Errorf("envOr() = %v, want %v", got, "set")
	}
}

func TestEnvIntOr(t *testing.T) {
	key := "TRANSLATECHECK_TEST_INT"
	fallback := 42

	t.Setenv(key, "")
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "100")
	if got := envIntOr(key, fallback); got != 100 {
		t.Errorf("envIntOr() = %v, want %v", got, 100)
	}

	t.Setenv(key, "invalid")
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "-3")
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr(negative) = %v, want %v", got, fallback)
	}
}

func TestEnvBoolOr(t *testing.T) {
	key := "TRANSLATECHECK_TEST_BOOL"
	fallback := true

	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"yes", true}, {"on", true},
		{"0", false}, {"false", false}, {"no", false}, {"off", false},
		{"garbage", true}, // should return fallback
	}

	for _, tt := range tests {
		t.Setenv(key, tt.val)
		if got := envBoolOr(key, fallback); got != tt.want {
			t.Errorf("envBoolOr(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func noConfigFile(t *testing.T) {
	t.Helper()
	t.Setenv("TRANSLATECHECK_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
}

func TestLoadConfigDefaults(t *testing.T) {
	noConfigFile(t)
	for _, k := range []string{"TRANSLATECHECK_BASE_URL", "TRANSLATECHECK_HEADLESS", "TRANSLATECHECK_DEBUG", "TRANSLATECHECK_DEFAULT_BROWSER"} {
		_ = os.Unsetenv(k)
	}

	cfg := Load()
	if cfg.BaseURL != "https://translate.google.com/" {
		t.Errorf("default BaseURL = %v", cfg.BaseURL)
	}
	if cfg.MismatchThreshold != 2 || cfg.ToleranceSlack != 40 {
		t.Errorf("default tolerance = %d/%d, want 2/40", cfg.MismatchThreshold, cfg.ToleranceSlack)
	}
	if cfg.WaitTimeout != 5*time.Second || cfg.SlowMo != 30*time.Millisecond {
		t.Errorf("default timing = %v/%v", cfg.WaitTimeout, cfg.SlowMo)
	}
	if want := filepath.Join("test", "integration", "screenshots", "chromium", "baseline", "headless"); cfg.BaselineDir() != want {
		t.Errorf("BaselineDir = %v, want %v", cfg.BaselineDir(), want)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	noConfigFile(t)
	t.Setenv("TRANSLATECHECK_HEADLESS", "false")
	t.Setenv("TRANSLATECHECK_DEFAULT_BROWSER", "false")
	t.Setenv("TRANSLATECHECK_DEBUG", "true")

	cfg := Load()
	if got := cfg.CurrentDir(); !strings.HasSuffix(got, filepath.Join("chrome", "current", "nonHeadless")) {
		t.Errorf("CurrentDir = %v", got)
	}
	if cfg.WaitTimeout != 7*time.Second {
		t.Errorf("debug WaitTimeout = %v, want 7s", cfg.WaitTimeout)
	}
	if cfg.CaptureEnabled() {
		t.Error("captures should be disabled for a non-default browser")
	}
}

func TestDiffImpliesCapture(t *testing.T) {
	cfg := &RuntimeConfig{DefaultBrowser: true, TakeScreenshots: false, DiffScreenshots: true}
	if cfg.DiffEnabled() {
		t.Error("diff must not be enabled without captures")
	}
}

func TestLoadConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("TRANSLATECHECK_CONFIG", configPath)
	_ = os.Unsetenv("TRANSLATECHECK_HEADLESS")
	_ = os.Unsetenv("TRANSLATECHECK_MISMATCH_THRESHOLD")
	t.Setenv("TRANSLATECHECK_BASE_URL", "https://env.example/")

	configData := `{
		"baseUrl": "https://file.example/",
		"headless": false,
		"mismatchThreshold": 10,
		"timeoutSec": 60
	}`
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.BaseURL != "https://env.example/" {
		t.Errorf("env should win over file, BaseURL = %v", cfg.BaseURL)
	}
	if cfg.Headless != false {
		t.Errorf("file Headless = %v, want false", cfg.Headless)
	}
	if cfg.MismatchThreshold != 10 {
		t.Errorf("file MismatchThreshold = %v, want 10", cfg.MismatchThreshold)
	}
	if cfg.WaitTimeout != 60*time.Second {
		t.Errorf("file WaitTimeout = %v, want 60s", cfg.WaitTimeout)
	}
}

func TestInitFileAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	if err := InitFile(path, false); err != nil {
		t.Fatal(err)
	}
	if err := InitFile(path, false); err == nil {
		t.Error("expected error when config already exists")
	}
	if err := InitFile(path, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}

	var buf bytes.Buffer
	Show(&RuntimeConfig{BaseURL: "https://x/", ScreenshotRoot: "shots"}, &buf)
	if !strings.Contains(buf.String(), "https://x/") || !strings.Contains(buf.String(), "CDP URL:      (none)") {
		t.Errorf("unexpected show output:\n%s", buf.String())
	}
}
