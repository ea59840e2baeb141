package bridge

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"

	pg "github.com/pinchtab/translatecheck/internal/page"
)

func TestToEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   any
		want pg.Event
		ok   bool
	}{
		{
			name: "exception prefers description",
			ev: &runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
				Text:      "Uncaught",
				URL:       "https://x/app.js",
				Exception: &runtime.RemoteObject{Description: "TypeError: boom"},
			}},
			want: pg.Event{Kind: pg.EventException, Message: "TypeError: boom", URL: "https://x/app.js"},
			ok:   true,
		},
		{
			name: "exception text only",
			ev:   &runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught"}},
			want: pg.Event{Kind: pg.EventException, Message: "Uncaught"},
			ok:   true,
		},
		{
			name: "console error",
			ev: &runtime.EventConsoleAPICalled{Type: runtime.APITypeError, Args: []*runtime.RemoteObject{
				{Description: "Error: failed"},
			}},
			want: pg.Event{Kind: pg.EventConsole, Message: "Error: failed"},
			ok:   true,
		},
		{
			name: "console log ignored",
			ev:   &runtime.EventConsoleAPICalled{Type: runtime.APITypeLog},
		},
		{
			name: "dialog",
			ev:   &page.EventJavascriptDialogOpening{Message: "leave?", URL: "https://x/"},
			want: pg.Event{Kind: pg.EventDialog, Message: "leave?", URL: "https://x/"},
			ok:   true,
		},
		{
			name: "document load failure",
			ev:   &network.EventLoadingFailed{Type: network.ResourceTypeDocument, ErrorText: "net::ERR_NAME_NOT_RESOLVED"},
			want: pg.Event{Kind: pg.EventLoadFail, Message: "net::ERR_NAME_NOT_RESOLVED"},
			ok:   true,
		},
		{
			name: "image load failure ignored",
			ev:   &network.EventLoadingFailed{Type: network.ResourceTypeImage, ErrorText: "blocked"},
		},
		{
			name: "cancelled document ignored",
			ev:   &network.EventLoadingFailed{Type: network.ResourceTypeDocument, Canceled: true},
		},
		{
			name: "unrelated",
			ev:   &page.EventLoadEventFired{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEvent(tt.ev)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubscribeAndClose(t *testing.T) {
	b := New(context.Background(), context.Background(), nil, nil)

	var got []pg.Event
	unsubscribe := b.Subscribe(func(e pg.Event) { got = append(got, e) })
	b.dispatch(pg.Event{Kind: pg.EventConsole, Message: "one"})
	unsubscribe()
	unsubscribe()
	b.dispatch(pg.Event{Kind: pg.EventConsole, Message: "two"})

	if len(got) != 1 || got[0].Message != "one" {
		t.Fatalf("got %+v, want only the first event", got)
	}

	b.Subscribe(func(e pg.Event) { t.Error("delivered after close") })
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	b.dispatch(pg.Event{Kind: pg.EventException})
}
