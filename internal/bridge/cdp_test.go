package bridge

import (
	"context"
	"strings"
	"testing"

	pg "github.com/pinchtab/translatecheck/internal/page"
)

func TestNavigatePage_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NavigatePage(ctx, "https://example.com")
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := waitReady(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLocateJS(t *testing.T) {
	tests := []struct {
		loc  pg.Locator
		want string
	}{
		{pg.ByCSS(`button[aria-label="Swap"]`, ""), `document.querySelector("button[aria-label=\"Swap\"]")`},
		{pg.ByXPath(`//span[@lang]`, ""), `document.evaluate("//span[@lang]", document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`},
	}
	for _, tt := range tests {
		if got := locateJS(tt.loc); got != tt.want {
			t.Errorf("locateJS(%v) = %s, want %s", tt.loc, got, tt.want)
		}
	}
}

func TestProbeScripts(t *testing.T) {
	loc := pg.ByCSS("#out", "output")
	if got := presentJS(loc); !strings.HasSuffix(got, "!== null") {
		t.Errorf("presentJS = %s", got)
	}
	if got := visibleJS(loc); !strings.Contains(got, "getBoundingClientRect") || !strings.Contains(got, `document.querySelector("#out")`) {
		t.Errorf("visibleJS = %s", got)
	}
	if got := textJS(loc); !strings.Contains(got, "el.value") || !strings.Contains(got, "found: false") {
		t.Errorf("textJS = %s", got)
	}
}
