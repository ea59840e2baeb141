package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/chromedp"

	"github.com/pinchtab/translatecheck/internal/config"
)

func stubCancelBrowser(t *testing.T, err error) *int {
	t.Helper()
	calls := 0
	orig := cancelBrowser
	cancelBrowser = func(context.Context) error {
		calls++
		return err
	}
	t.Cleanup(func() { cancelBrowser = orig })
	return &calls
}

func TestCloseReturnsBrowserError(t *testing.T) {
	calls := stubCancelBrowser(t, errors.New("target crashed"))

	bctx, bcancel := chromedp.NewContext(context.Background())
	b := New(context.Background(), bctx, &config.RuntimeConfig{}, nil)
	b.BrowserCancel = bcancel

	err := b.Close()
	if err == nil || err.Error() != "close browser: target crashed" {
		t.Fatalf("Close() = %v, want the browser close error", err)
	}
	if again := b.Close(); again != err {
		t.Errorf("second Close() = %v, want %v", again, err)
	}
	if *calls != 1 {
		t.Errorf("browser cancelled %d times, want 1", *calls)
	}
	if bctx.Err() == nil {
		t.Error("browser context still live after Close")
	}
}

func TestCloseIgnoresCanceled(t *testing.T) {
	stubCancelBrowser(t, context.Canceled)

	bctx, bcancel := chromedp.NewContext(context.Background())
	b := New(context.Background(), bctx, nil, nil)
	b.BrowserCancel = bcancel

	if err := b.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestCloseLeavesRemoteBrowser(t *testing.T) {
	calls := stubCancelBrowser(t, errors.New("should not be called"))

	bctx, bcancel := chromedp.NewContext(context.Background())
	b := New(context.Background(), bctx, &config.RuntimeConfig{CdpURL: "ws://127.0.0.1:9222"}, nil)
	b.BrowserCancel = bcancel

	if err := b.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if *calls != 0 {
		t.Errorf("remote browser closed %d times", *calls)
	}
	if bctx.Err() == nil {
		t.Error("tab context still live after Close")
	}
}
