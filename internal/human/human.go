// Package human paces input the way a person would so pages that debounce
// keystrokes see realistic timing. Unlike a real typist it never makes typos:
// the harness asserts on exactly what it typed.
package human

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

var (
	randMu    sync.Mutex
	humanRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func SetHumanRandSeed(seed int64) {
	randMu.Lock()
	humanRand = rand.New(rand.NewSource(seed))
	randMu.Unlock()
}

// Config allows injecting a custom random source for testing
type Config struct {
	Rand *rand.Rand
}

func (c *Config) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if c != nil && c.Rand != nil {
		return c.Rand.Intn(n)
	}
	randMu.Lock()
	defer randMu.Unlock()
	return humanRand.Intn(n)
}

// Delays returns the pause after each rune of text. Each pause is slowMo
// plus up to half of it in jitter, halved after a repeated character.
func Delays(text string, slowMo time.Duration, cfg *Config) []time.Duration {
	chars := []rune(text)
	out := make([]time.Duration, len(chars))
	if slowMo <= 0 {
		return out
	}
	for i, ch := range chars {
		d := slowMo + time.Duration(cfg.intn(int(slowMo/2)+1))
		if i > 0 && chars[i-1] == ch {
			d /= 2
		}
		out[i] = d
	}
	return out
}

func Type(text string, slowMo time.Duration) []chromedp.Action {
	return TypeWithConfig(text, slowMo, nil)
}

// TypeWithConfig generates typing actions with optional custom random source
func TypeWithConfig(text string, slowMo time.Duration, cfg *Config) []chromedp.Action {
	delays := Delays(text, slowMo, cfg)
	actions := make([]chromedp.Action, 0, 2*len(delays))
	for i, ch := range []rune(text) {
		actions = append(actions, chromedp.KeyEvent(string(ch)))
		if delays[i] > 0 {
			actions = append(actions, chromedp.Sleep(delays[i]))
		}
	}
	return actions
}

// Pause sleeps for slowMo, returning early if ctx is done.
func Pause(ctx context.Context, slowMo time.Duration) error {
	if slowMo <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(slowMo)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
