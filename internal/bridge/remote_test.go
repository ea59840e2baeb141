package bridge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
)

func wsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/devtools/browser/abc"
		fmt.Fprintf(w, `{"Browser":"Chrome/124","webSocketDebuggerUrl":%q}`, wsURL)
	})
	mux.HandleFunc("/devtools/browser/abc", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		_ = conn.Close()
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeRemote(t *testing.T) {
	srv := wsServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ProbeRemote(ctx, srv.URL); err != nil {
		t.Errorf("http endpoint: %v", err)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/devtools/browser/abc"
	if err := ProbeRemote(ctx, wsURL); err != nil {
		t.Errorf("ws endpoint: %v", err)
	}
}

func TestProbeRemote_Errors(t *testing.T) {
	srv := wsServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	tests := []struct {
		name     string
		endpoint string
	}{
		{"bad scheme", "ftp://localhost:9222"},
		{"refused", deadURL},
		{"not a websocket", "ws" + strings.TrimPrefix(srv.URL, "http") + "/json/version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ProbeRemote(ctx, tt.endpoint); err == nil {
				t.Errorf("ProbeRemote(%s) succeeded, want error", tt.endpoint)
			}
		})
	}
}

func TestResolveDebuggerURL_MissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Browser":"Chrome"}`))
	}))
	defer srv.Close()

	if _, err := resolveDebuggerURL(context.Background(), srv.URL); err == nil {
		t.Error("expected error when webSocketDebuggerUrl is absent")
	}
}
