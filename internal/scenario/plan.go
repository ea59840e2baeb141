package scenario

import (
	"context"
	"fmt"

	"github.com/pinchtab/translatecheck/internal/config"
	"github.com/pinchtab/translatecheck/internal/corpus"
	"github.com/pinchtab/translatecheck/internal/page"
	"github.com/pinchtab/translatecheck/internal/visual"
)

// submitKey confirms a language search box entry.
const submitKey = "\n"

// DefaultShot is the capture name for the idle page between word cases.
const DefaultShot = "default"

// WordItem is one word case with its position in the list.
type WordItem struct {
	Case   corpus.WordCase
	Index  int
	IsLast bool
}

func WordPlan(cases []corpus.WordCase) []WordItem {
	items := make([]WordItem, len(cases))
	for i, c := range cases {
		items[i] = WordItem{Case: c, Index: i, IsLast: i == len(cases)-1}
	}
	return items
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// TranslatePlan builds the translation page scenario: open the page, pick
// both languages, round-trip every word case through the swap button, then
// exercise the on-screen keyboard.
func TranslatePlan(c *corpus.Corpus, cfg *config.RuntimeConfig) []Step {
	sel := c.Selectors
	baseURL := firstNonEmpty(c.BaseURL, cfg.BaseURL)
	title := firstNonEmpty(c.PageTitle, cfg.PageTitle)
	shotOpts := visual.CompareOptions{MismatchThreshold: cfg.MismatchThreshold, ToleranceSlack: cfg.ToleranceSlack}

	return []Step{
		{Name: "open page", Run: func(ctx context.Context, s *Session) error {
			return openPage(ctx, s, sel, baseURL, title)
		}},
		{Name: "select source language", Run: func(ctx context.Context, s *Session) error {
			if err := s.UI.Click(ctx, sel.TranslateTextBtn); err != nil {
				return err
			}
			return selectLanguage(ctx, s, sel.SelectSourceLangBtn, sel.SourceLangInput, sel.SourceLangText, c.Languages.Source.Lang)
		}},
		{Name: "select target language", Run: func(ctx context.Context, s *Session) error {
			return selectLanguage(ctx, s, sel.SelectTargetLangBtn, sel.TargetLangInput, sel.TargetLangText, c.Languages.Target.Lang)
		}},
		{Name: "translate word list", Run: func(ctx context.Context, s *Session) error {
			for _, item := range WordPlan(c.Text) {
				if err := translateWord(ctx, s, sel, item, shotOpts); err != nil {
					return fmt.Errorf("word %d (%q): %w", item.Index+1, item.Case.Initial, err)
				}
			}
			return nil
		}},
		{Name: "open virtual keyboard", Run: func(ctx context.Context, s *Session) error {
			if err := s.UI.Click(ctx, sel.InputToolBtn); err != nil {
				return err
			}
			kb := sel.ScreenKeyboard
			if c.Keyboard.Type != "" {
				kb.Name = c.Keyboard.Type
			}
			if err := s.UI.Click(ctx, kb); err != nil {
				return err
			}
			return s.UI.WaitFor(ctx, sel.KeyboardInUse, page.Present)
		}},
		{Name: "type on virtual keyboard", Run: func(ctx context.Context, s *Session) error {
			var keys []page.Locator
			for _, r := range c.Keyboard.Input {
				keys = append(keys, sel.Key(r))
			}
			if err := s.UI.TypeSequence(ctx, keys); err != nil {
				return err
			}
			text, err := s.UI.ReadText(ctx, sel.InputText)
			if err != nil {
				return err
			}
			if err := expectEqual("keyboard input text", c.Keyboard.Input, text); err != nil {
				return err
			}
			return s.UI.WaitFor(ctx, sel.OutputText, page.Present)
		}},
		{Name: "close virtual keyboard", Run: func(ctx context.Context, s *Session) error {
			if err := s.UI.Click(ctx, sel.CloseKeyboardBtn); err != nil {
				return err
			}
			return s.UI.WaitFor(ctx, sel.KeyboardClosed, page.Present)
		}},
	}
}

// openPage loads the page and clears any source text a previous session
// left behind.
func openPage(ctx context.Context, s *Session, sel corpus.Selectors, baseURL, title string) error {
	if err := s.Page.Navigate(ctx, baseURL); err != nil {
		return err
	}
	if err := s.UI.ExpectURL(ctx, baseURL); err != nil {
		return err
	}
	if err := s.UI.ExpectTitle(ctx, title); err != nil {
		return err
	}
	if !s.UI.Found(ctx, sel.ClearInputTextBtn) {
		return nil
	}
	s.Log.Info("clearing leftover input")
	if err := s.UI.Click(ctx, sel.ClearInputTextBtn); err != nil {
		return err
	}
	if err := s.Page.Reload(ctx); err != nil {
		return err
	}
	text, err := s.UI.ReadText(ctx, sel.EmptyInputTextField)
	if err != nil {
		return err
	}
	return expectEqual("source text after clear", "", text)
}

func selectLanguage(ctx context.Context, s *Session, dropdown, search, selected page.Locator, lang string) error {
	if err := s.UI.Click(ctx, dropdown); err != nil {
		return err
	}
	if err := s.UI.Type(ctx, search, lang+submitKey); err != nil {
		return err
	}
	text, err := s.UI.ReadText(ctx, selected)
	if err != nil {
		return err
	}
	return expectEqual(fmt.Sprintf("selected language (%s)", selected.Name), lang, text)
}

func translateWord(ctx context.Context, s *Session, sel corpus.Selectors, item WordItem, shotOpts visual.CompareOptions) error {
	w := item.Case

	if err := s.UI.Type(ctx, sel.SourceTextInput, w.Initial); err != nil {
		return err
	}
	text, err := s.UI.ReadText(ctx, sel.TranslatedText)
	if err != nil {
		return err
	}
	s.Verify.Check(fmt.Sprintf("translation of %q", w.Initial), w.ExpectTranslationToPass, w.Expected, text)

	if err := s.UI.Click(ctx, sel.SwapLangBtn); err != nil {
		return err
	}
	if err := s.UI.WaitFor(ctx, sel.TargetTextSwapped, page.Present); err != nil {
		return err
	}

	// The old translation is now the source text.
	text, err = s.UI.ReadText(ctx, sel.SourceTextSwapped)
	if err != nil {
		return err
	}
	s.Verify.Check(fmt.Sprintf("swapped source for %q", w.Initial), w.ExpectTranslationToPass, w.Expected, text)

	// And it should translate back to the original word.
	text, err = s.UI.ReadText(ctx, sel.TargetTextSwapped)
	if err != nil {
		return err
	}
	s.Verify.Check(fmt.Sprintf("swap translation of %q", w.Expected), w.ExpectSwapTranslationToPass, w.Initial, text)

	if !item.IsLast {
		if err := s.UI.Click(ctx, sel.SwapLangBtn); err != nil {
			return err
		}
	}
	if err := s.UI.Click(ctx, sel.ClearInputTextBtn); err != nil {
		return err
	}
	if err := s.Page.Reload(ctx); err != nil {
		return err
	}

	if !item.IsLast {
		return s.CaptureAndCompare(ctx, DefaultShot, shotOpts)
	}
	return nil
}
