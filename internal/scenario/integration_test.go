//go:build integration

package scenario_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinchtab/translatecheck/internal/bridge"
	"github.com/pinchtab/translatecheck/internal/config"
	"github.com/pinchtab/translatecheck/internal/corpus"
	"github.com/pinchtab/translatecheck/internal/page"
	"github.com/pinchtab/translatecheck/internal/pwdriver"
	"github.com/pinchtab/translatecheck/internal/scenario"
	"github.com/pinchtab/translatecheck/internal/visual"
)

func fixtureConfig(t *testing.T, baseURL string) *config.RuntimeConfig {
	t.Helper()
	t.Setenv("TRANSLATECHECK_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	cfg := config.Load()
	cfg.BaseURL = baseURL
	cfg.Headless = true
	cfg.DefaultBrowser = true
	cfg.ScreenshotRoot = t.TempDir()
	if d := os.Getenv("TRANSLATECHECK_DRIVER"); d != "" {
		cfg.Driver = d
	}
	return cfg
}

func launch(t *testing.T, ctx context.Context, cfg *config.RuntimeConfig) page.Page {
	t.Helper()
	log := slog.Default()
	if cfg.Driver == config.DriverPlaywright {
		d, err := pwdriver.Launch(cfg, log)
		require.NoError(t, err)
		return d
	}
	b, err := bridge.Launch(ctx, cfg, log)
	require.NoError(t, err)
	return b
}

func runFixture(t *testing.T, ctx context.Context, cfg *config.RuntimeConfig, c *corpus.Corpus) scenario.Result {
	t.Helper()
	s := scenario.NewSession(launch(t, ctx, cfg), cfg, nil)
	return scenario.NewRunner(nil).Run(ctx, s, scenario.TranslatePlan(c, cfg))
}

func TestTranslateFixture(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := corpus.Load(filepath.Join("testdata", "fixture.yaml"))
	require.NoError(t, err)
	cfg := fixtureConfig(t, srv.URL+"/translate.html")

	// First pass only captures, so there is something to approve.
	cfg.DiffScreenshots = false
	res := runFixture(t, ctx, cfg, c)
	require.NoError(t, res.Hard)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, "Cat", res.Divergences[0].Actual)

	_, err = visual.NewStore(cfg, nil).Approve(scenario.DefaultShot)
	require.NoError(t, err)

	cfg.DiffScreenshots = true
	res = runFixture(t, ctx, cfg, c)
	require.NoError(t, res.Hard)
	assert.True(t, res.Passed(), "failures: %v", res.Failures)
	require.Len(t, res.Screenshots, 1)
	assert.LessOrEqual(t, res.Screenshots[0].MismatchedPixels, cfg.MismatchThreshold)
}
