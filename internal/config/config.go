package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

type RuntimeConfig struct {
	BaseURL    string
	PageTitle  string
	CorpusPath string
	ReportPath string

	Driver           string
	Headless         bool
	Debug            bool
	DefaultBrowser   bool
	ChromeBinary     string
	ChromeExtraFlags string
	CdpURL           string
	NoAnimations     bool
	BlockTrackers    bool
	BlockPatterns    []string

	WindowWidth    int
	WindowHeight   int
	ViewportWidth  int
	ViewportHeight int

	ScreenshotRoot    string
	ScreenshotExt     string
	TakeScreenshots   bool
	DiffScreenshots   bool
	KeepPassing       bool
	MismatchThreshold int
	ToleranceSlack    int

	PollInterval    time.Duration
	WaitTimeout     time.Duration
	SlowMo          time.Duration
	NavigateTimeout time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

// PlatformVariant names the browser build baselines were captured with.
func (c *RuntimeConfig) PlatformVariant() string {
	if c.DefaultBrowser {
		return "chromium"
	}
	return "chrome"
}

// ModeVariant separates headless baselines from windowed ones.
func (c *RuntimeConfig) ModeVariant() string {
	if c.Headless {
		return "headless"
	}
	return "nonHeadless"
}

func (c *RuntimeConfig) BaselineDir() string {
	return filepath.Join(c.ScreenshotRoot, c.PlatformVariant(), "baseline", c.ModeVariant())
}

func (c *RuntimeConfig) CurrentDir() string {
	return filepath.Join(c.ScreenshotRoot, c.PlatformVariant(), "current", c.ModeVariant())
}

// CaptureEnabled reports whether screenshots are taken at all. Captures are
// only meaningful against the bundled browser build the baselines came from.
func (c *RuntimeConfig) CaptureEnabled() bool {
	return c.TakeScreenshots && c.DefaultBrowser
}

func (c *RuntimeConfig) DiffEnabled() bool {
	return c.DiffScreenshots && c.CaptureEnabled()
}

// applyTiming fills in poll/timeout/slow-mo defaults, looser in debug mode.
func (c *RuntimeConfig) applyTiming() {
	if c.Debug {
		c.PollInterval = 200 * time.Millisecond
		c.WaitTimeout = 7 * time.Second
		c.SlowMo = 100 * time.Millisecond
		return
	}
	c.PollInterval = 100 * time.Millisecond
	c.WaitTimeout = 5 * time.Second
	c.SlowMo = 30 * time.Millisecond
}

// SetDebug toggles debug mode and re-derives the timing it controls.
func (c *RuntimeConfig) SetDebug(on bool) {
	c.Debug = on
	c.applyTiming()
}

type FileConfig struct {
	BaseURL           string `json:"baseUrl,omitempty"`
	PageTitle         string `json:"pageTitle,omitempty"`
	Corpus            string `json:"corpus,omitempty"`
	Report            string `json:"report,omitempty"`
	Driver            string `json:"driver,omitempty"`
	CdpURL            string `json:"cdpUrl,omitempty"`
	Headless          *bool  `json:"headless,omitempty"`
	Debug             bool   `json:"debug"`
	DefaultBrowser    *bool  `json:"defaultBrowser,omitempty"`
	ScreenshotDir     string `json:"screenshotDir,omitempty"`
	MismatchThreshold *int   `json:"mismatchThreshold,omitempty"`
	ToleranceSlack    *int   `json:"toleranceSlack,omitempty"`
	TimeoutSec        int    `json:"timeoutSec,omitempty"`
	NavigateSec       int    `json:"navigateSec,omitempty"`
}

func ConfigPath() string {
	return envOr("TRANSLATECHECK_CONFIG", filepath.Join(homeDir(), ".translatecheck", "config.json"))
}

func Load() *RuntimeConfig {
	cfg := &RuntimeConfig{
		BaseURL:           envOr("TRANSLATECHECK_BASE_URL", "https://translate.google.com/"),
		PageTitle:         envOr("TRANSLATECHECK_PAGE_TITLE", "Google Translate"),
		CorpusPath:        envOr("TRANSLATECHECK_CORPUS", filepath.Join("testdata", "translate.yaml")),
		ReportPath:        os.Getenv("TRANSLATECHECK_REPORT"),
		Driver:            envOr("TRANSLATECHECK_DRIVER", DriverChromedp),
		Headless:          envBoolOr("TRANSLATECHECK_HEADLESS", true),
		Debug:             envBoolOr("TRANSLATECHECK_DEBUG", false),
		DefaultBrowser:    envBoolOr("TRANSLATECHECK_DEFAULT_BROWSER", true),
		ChromeBinary:      os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags:  os.Getenv("CHROME_FLAGS"),
		CdpURL:            os.Getenv("CDP_URL"),
		NoAnimations:      envBoolOr("TRANSLATECHECK_NO_ANIMATIONS", true),
		BlockTrackers:     envBoolOr("TRANSLATECHECK_BLOCK_TRACKERS", true),
		BlockPatterns:     strings.Fields(os.Getenv("TRANSLATECHECK_BLOCK_PATTERNS")),
		WindowWidth:       envIntOr("TRANSLATECHECK_WINDOW_WIDTH", 1600),
		WindowHeight:      envIntOr("TRANSLATECHECK_WINDOW_HEIGHT", 940),
		ViewportWidth:     envIntOr("TRANSLATECHECK_VIEWPORT_WIDTH", 1017),
		ViewportHeight:    envIntOr("TRANSLATECHECK_VIEWPORT_HEIGHT", 900),
		ScreenshotRoot:    envOr("TRANSLATECHECK_SCREENSHOT_DIR", filepath.Join("test", "integration", "screenshots")),
		ScreenshotExt:     "png",
		TakeScreenshots:   envBoolOr("TRANSLATECHECK_SCREENSHOTS", true),
		DiffScreenshots:   envBoolOr("TRANSLATECHECK_DIFF", true),
		KeepPassing:       envBoolOr("TRANSLATECHECK_KEEP_PASSING", false),
		MismatchThreshold: envIntOr("TRANSLATECHECK_MISMATCH_THRESHOLD", 2),
		ToleranceSlack:    envIntOr("TRANSLATECHECK_TOLERANCE_SLACK", 40),
		NavigateTimeout:   30 * time.Second,
	}
	cfg.applyTiming()

	configPath := ConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		slog.Warn("invalid JSON in config file, ignoring", "path", configPath, "err", err)
		return cfg
	}
	cfg.applyFile(fc)
	return cfg
}

func (c *RuntimeConfig) applyFile(fc FileConfig) {
	if fc.BaseURL != "" && !envSet("TRANSLATECHECK_BASE_URL") {
		c.BaseURL = fc.BaseURL
	}
	if fc.PageTitle != "" && !envSet("TRANSLATECHECK_PAGE_TITLE") {
		c.PageTitle = fc.PageTitle
	}
	if fc.Corpus != "" && !envSet("TRANSLATECHECK_CORPUS") {
		c.CorpusPath = fc.Corpus
	}
	if fc.Report != "" && !envSet("TRANSLATECHECK_REPORT") {
		c.ReportPath = fc.Report
	}
	if fc.Driver != "" && !envSet("TRANSLATECHECK_DRIVER") {
		c.Driver = fc.Driver
	}
	if fc.CdpURL != "" && !envSet("CDP_URL") {
		c.CdpURL = fc.CdpURL
	}
	if fc.Headless != nil && !envSet("TRANSLATECHECK_HEADLESS") {
		c.Headless = *fc.Headless
	}
	if fc.Debug && !envSet("TRANSLATECHECK_DEBUG") {
		c.Debug = true
		c.applyTiming()
	}
	if fc.DefaultBrowser != nil && !envSet("TRANSLATECHECK_DEFAULT_BROWSER") {
		c.DefaultBrowser = *fc.DefaultBrowser
	}
	if fc.ScreenshotDir != "" && !envSet("TRANSLATECHECK_SCREENSHOT_DIR") {
		c.ScreenshotRoot = fc.ScreenshotDir
	}
	if fc.MismatchThreshold != nil && !envSet("TRANSLATECHECK_MISMATCH_THRESHOLD") {
		c.MismatchThreshold = *fc.MismatchThreshold
	}
	if fc.ToleranceSlack != nil && !envSet("TRANSLATECHECK_TOLERANCE_SLACK") {
		c.ToleranceSlack = *fc.ToleranceSlack
	}
	if fc.NavigateSec > 0 {
		c.NavigateTimeout = time.Duration(fc.NavigateSec) * time.Second
	}
	if fc.TimeoutSec > 0 {
		c.WaitTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}
}

func DefaultFileConfig() FileConfig {
	h := true
	db := true
	threshold, slack := 2, 40
	return FileConfig{
		BaseURL:           "https://translate.google.com/",
		PageTitle:         "Google Translate",
		Corpus:            filepath.Join("testdata", "translate.yaml"),
		Driver:            DriverChromedp,
		Headless:          &h,
		DefaultBrowser:    &db,
		ScreenshotDir:     filepath.Join("test", "integration", "screenshots"),
		MismatchThreshold: &threshold,
		ToleranceSlack:    &slack,
		TimeoutSec:        5,
		NavigateSec:       30,
	}
}

// InitFile writes the default config to path. An existing file is kept
// unless force is set.
func InitFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(DefaultFileConfig(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func Show(cfg *RuntimeConfig, w io.Writer) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintf(w, "  Base URL:     %s\n", cfg.BaseURL)
	fmt.Fprintf(w, "  Page title:   %s\n", cfg.PageTitle)
	fmt.Fprintf(w, "  Corpus:       %s\n", cfg.CorpusPath)
	fmt.Fprintf(w, "  Driver:       %s\n", cfg.Driver)
	fmt.Fprintf(w, "  CDP URL:      %s\n", orNone(cfg.CdpURL))
	fmt.Fprintf(w, "  Headless:     %v\n", cfg.Headless)
	fmt.Fprintf(w, "  Debug:        %v\n", cfg.Debug)
	fmt.Fprintf(w, "  Window:       %dx%d (viewport %dx%d)\n", cfg.WindowWidth, cfg.WindowHeight, cfg.ViewportWidth, cfg.ViewportHeight)
	fmt.Fprintf(w, "  Baselines:    %s\n", cfg.BaselineDir())
	fmt.Fprintf(w, "  Captures:     %s (capture=%v diff=%v)\n", cfg.CurrentDir(), cfg.CaptureEnabled(), cfg.DiffEnabled())
	fmt.Fprintf(w, "  Tolerance:    threshold=%d slack=%d\n", cfg.MismatchThreshold, cfg.ToleranceSlack)
	fmt.Fprintf(w, "  Timing:       poll=%v wait=%v slowmo=%v navigate=%v\n", cfg.PollInterval, cfg.WaitTimeout, cfg.SlowMo, cfg.NavigateTimeout)
	fmt.Fprintf(w, "  Report:       %s\n", orNone(cfg.ReportPath))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
