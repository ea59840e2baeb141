// Package corpus loads the word cases and page fixtures a scenario runs
// against. Files may be JSON or YAML.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pinchtab/translatecheck/internal/page"
)

// WordCase is one round-trip translation check.
type WordCase struct {
	Initial                     string `json:"initial" yaml:"initial"`
	Expected                    string `json:"expected" yaml:"expected"`
	ExpectTranslationToPass     bool   `json:"expectTranslationToPass" yaml:"expectTranslationToPass"`
	ExpectSwapTranslationToPass bool   `json:"expectSwapTranslationToPass" yaml:"expectSwapTranslationToPass"`
}

type Language struct {
	Lang string `json:"lang" yaml:"lang"`
}

type Languages struct {
	Source Language `json:"source" yaml:"source"`
	Target Language `json:"target" yaml:"target"`
}

type Keyboard struct {
	Type  string `json:"type" yaml:"type"`
	Input string `json:"input" yaml:"input"`
}

type Corpus struct {
	PageTitle string     `json:"pageTitle,omitempty" yaml:"pageTitle,omitempty"`
	BaseURL   string     `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Languages Languages  `json:"languages" yaml:"languages"`
	Text      []WordCase `json:"text" yaml:"text"`
	Keyboard  Keyboard   `json:"keyboard" yaml:"keyboard"`
	Selectors Selectors  `json:"selectors,omitempty" yaml:"selectors,omitempty"`
}

// Load reads a corpus file, choosing the decoder from its extension.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

func Parse(data []byte, ext string) (*Corpus, error) {
	var c Corpus
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse corpus yaml: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse corpus json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", ext)
	}
	c.Selectors = c.Selectors.withDefaults(DefaultSelectors())
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Corpus) Validate() error {
	if c.Languages.Source.Lang == "" || c.Languages.Target.Lang == "" {
		return fmt.Errorf("corpus: source and target languages are required")
	}
	if len(c.Text) == 0 {
		return fmt.Errorf("corpus: at least one word case is required")
	}
	for i, w := range c.Text {
		if w.Initial == "" {
			return fmt.Errorf("corpus: word case %d has empty initial text", i)
		}
	}
	if k := c.Selectors.KeyboardKey; k != "" {
		if strings.Count(k, "%s") != 1 || strings.Contains(k, `"%s"`) || strings.Contains(k, `'%s'`) {
			return fmt.Errorf("corpus: keyboardKey %q needs one unquoted %%s", k)
		}
	}
	return nil
}

// Selectors is the locator catalogue for the translation page.
type Selectors struct {
	TranslateTextBtn    page.Locator `json:"translateTextBtn" yaml:"translateTextBtn"`
	SelectSourceLangBtn page.Locator `json:"selectSourceLangBtn" yaml:"selectSourceLangBtn"`
	SelectTargetLangBtn page.Locator `json:"selectTargetLangBtn" yaml:"selectTargetLangBtn"`
	SourceLangInput     page.Locator `json:"sourceLangInput" yaml:"sourceLangInput"`
	TargetLangInput     page.Locator `json:"targetLangInput" yaml:"targetLangInput"`
	SourceLangText      page.Locator `json:"sourceLangText" yaml:"sourceLangText"`
	TargetLangText      page.Locator `json:"targetLangText" yaml:"targetLangText"`
	SourceTextInput     page.Locator `json:"sourceTextInput" yaml:"sourceTextInput"`
	TranslatedText      page.Locator `json:"translatedText" yaml:"translatedText"`
	SwapLangBtn         page.Locator `json:"swapLangBtn" yaml:"swapLangBtn"`
	SourceTextSwapped   page.Locator `json:"sourceTextSwapped" yaml:"sourceTextSwapped"`
	TargetTextSwapped   page.Locator `json:"targetTextSwapped" yaml:"targetTextSwapped"`
	ClearInputTextBtn   page.Locator `json:"clearInputTextBtn" yaml:"clearInputTextBtn"`
	EmptyInputTextField page.Locator `json:"emptyInputTextField" yaml:"emptyInputTextField"`
	InputToolBtn        page.Locator `json:"inputToolBtn" yaml:"inputToolBtn"`
	ScreenKeyboard      page.Locator `json:"screenKeyboard" yaml:"screenKeyboard"`
	KeyboardInUse       page.Locator `json:"keyboardInUse" yaml:"keyboardInUse"`
	KeyboardClosed      page.Locator `json:"keyboardClosed" yaml:"keyboardClosed"`
	CloseKeyboardBtn    page.Locator `json:"closeKeyboardBtn" yaml:"closeKeyboardBtn"`
	InputText           page.Locator `json:"inputText" yaml:"inputText"`
	OutputText          page.Locator `json:"outputText" yaml:"outputText"`
	// KeyboardKey is an XPath format string. Its single %s verb receives the
	// key label as an already quoted string literal.
	KeyboardKey string `json:"keyboardKey" yaml:"keyboardKey"`
}

// Key returns the on-screen keyboard locator for one character.
func (s Selectors) Key(ch rune) page.Locator {
	label := string(ch)
	if ch == ' ' {
		label = "space"
	}
	return page.ByXPath(fmt.Sprintf(s.KeyboardKey, xpathLiteral(label)), "key "+label)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(parts, `, '"', `) + ")"
}

func DefaultSelectors() Selectors {
	return Selectors{
		TranslateTextBtn:    page.ByCSS(`button[aria-label="Text translation"]`, "Text"),
		SelectSourceLangBtn: page.ByCSS(`button[aria-label="More source languages"]`, "Source Language Dropdown"),
		SelectTargetLangBtn: page.ByCSS(`button[aria-label="More target languages"]`, "Target Language Dropdown"),
		SourceLangInput:     page.ByCSS(`input[aria-label="Search languages"]:nth-of-type(1)`, "source language search"),
		TargetLangInput:     page.ByCSS(`input[aria-label="Search languages"]:nth-of-type(2)`, "target language search"),
		SourceLangText:      page.ByXPath(`//button[@aria-selected="true" and contains(@id,"source")]//span[1]`, "selected source language"),
		TargetLangText:      page.ByXPath(`//button[@aria-selected="true" and contains(@id,"target")]//span[1]`, "selected target language"),
		SourceTextInput:     page.ByCSS(`textarea[aria-label="Source text"]`, "source text"),
		TranslatedText:      page.ByCSS(`span[lang] > span > span`, "translated text"),
		SwapLangBtn:         page.ByCSS(`button[aria-label^="Swap languages"]`, "Swap Languages"),
		SourceTextSwapped:   page.ByCSS(`textarea[aria-label="Source text"]`, "swapped source text"),
		TargetTextSwapped:   page.ByXPath(`//span[@lang]/span/span`, "swapped target text"),
		ClearInputTextBtn:   page.ByCSS(`button[aria-label="Clear source text"]`, "Clear source text"),
		EmptyInputTextField: page.ByCSS(`textarea[aria-label="Source text"]`, "empty source text"),
		InputToolBtn:        page.ByCSS(`a[aria-label="Show the Input Tools menu"]`, "Select Input Tool"),
		ScreenKeyboard:      page.ByXPath(`//div[contains(@class,"ita-kd-menuitem")][contains(.,"Keyboard")]`, "on-screen keyboard"),
		KeyboardInUse:       page.ByXPath(`//div[@id="kbd"][not(contains(@style,"display: none"))]`, "keyboard open"),
		KeyboardClosed:      page.ByXPath(`//div[@id="kbd"][contains(@style,"display: none")]`, "keyboard closed"),
		CloseKeyboardBtn:    page.ByCSS(`#kbd .vk-sf-cl`, "Close keyboard"),
		InputText:           page.ByCSS(`textarea[aria-label="Source text"]`, "keyboard input text"),
		OutputText:          page.ByXPath(`//span[@lang]/span/span[normalize-space()]`, "keyboard output text"),
		KeyboardKey:         `//div[@id="kbd"]//button[normalize-space()=%s]`,
	}
}

func (s Selectors) withDefaults(d Selectors) Selectors {
	fill := func(l *page.Locator, def page.Locator) {
		if l.IsZero() {
			*l = def
		}
	}
	fill(&s.TranslateTextBtn, d.TranslateTextBtn)
	fill(&s.SelectSourceLangBtn, d.SelectSourceLangBtn)
	fill(&s.SelectTargetLangBtn, d.SelectTargetLangBtn)
	fill(&s.SourceLangInput, d.SourceLangInput)
	fill(&s.TargetLangInput, d.TargetLangInput)
	fill(&s.SourceLangText, d.SourceLangText)
	fill(&s.TargetLangText, d.TargetLangText)
	fill(&s.SourceTextInput, d.SourceTextInput)
	fill(&s.TranslatedText, d.TranslatedText)
	fill(&s.SwapLangBtn, d.SwapLangBtn)
	fill(&s.SourceTextSwapped, d.SourceTextSwapped)
	fill(&s.TargetTextSwapped, d.TargetTextSwapped)
	fill(&s.ClearInputTextBtn, d.ClearInputTextBtn)
	fill(&s.EmptyInputTextField, d.EmptyInputTextField)
	fill(&s.InputToolBtn, d.InputToolBtn)
	fill(&s.ScreenKeyboard, d.ScreenKeyboard)
	fill(&s.KeyboardInUse, d.KeyboardInUse)
	fill(&s.KeyboardClosed, d.KeyboardClosed)
	fill(&s.CloseKeyboardBtn, d.CloseKeyboardBtn)
	fill(&s.InputText, d.InputText)
	fill(&s.OutputText, d.OutputText)
	if s.KeyboardKey == "" {
		s.KeyboardKey = d.KeyboardKey
	}
	return s
}
