package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gobwas/ws"
)

// ProbeRemote checks that a remote DevTools endpoint accepts a websocket
// before chromedp attaches to it, so a dead CDP_URL fails fast with a clear
// error instead of hanging in the allocator. HTTP endpoints are resolved via
// /json/version first.
func ProbeRemote(ctx context.Context, endpoint string) error {
	wsURL, err := resolveDebuggerURL(ctx, endpoint)
	if err != nil {
		return err
	}
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return conn.Close()
}

func resolveDebuggerURL(ctx context.Context, endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse cdp url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
		return endpoint, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported cdp url scheme %q", u.Scheme)
	}

	versionURL := strings.TrimRight(endpoint, "/") + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", versionURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", versionURL, resp.StatusCode)
	}

	var v struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", fmt.Errorf("decode %s: %w", versionURL, err)
	}
	if v.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("%s has no webSocketDebuggerUrl", versionURL)
	}
	return v.WebSocketDebuggerURL, nil
}
