// Package i18n holds the translated UI and feedback messages.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/llm"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported lists the languages that ship with a locale file.
var Supported = []string{"en", "ko"}

var (
	bundle     *i18n.Bundle
	bundleOnce sync.Once
	bundleErr  error
)

func loadBundle() (*i18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			bundleErr = fmt.Errorf("read locales dir: %w", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				bundleErr = fmt.Errorf("read locale file %s: %w", e.Name(), err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
				bundleErr = fmt.Errorf("parse locale file %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
	return bundle, bundleErr
}

// Translator localizes messages for one language.
type Translator struct {
	lang string
	loc  *i18n.Localizer
}

// New returns a Translator for lang. Additional accept values (for example
// an Accept-Language header) are consulted in order when lang has no
// locale file. Unknown languages fall back to English.
func New(lang string, accept ...string) (*Translator, error) {
	if lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("parse language %q: %w", lang, err)
		}
	}
	b, err := loadBundle()
	if err != nil {
		return nil, err
	}
	langs := append([]string{lang}, accept...)
	return &Translator{lang: resolve(langs...), loc: i18n.NewLocalizer(b, langs...)}, nil
}

// MustNew is New for callers with a known-good language tag.
func MustNew(lang string) *Translator {
	t, err := New(lang)
	if err != nil {
		panic(err)
	}
	return t
}

// Lang is the language messages are actually rendered in.
func (t *Translator) Lang() string { return t.lang }

// T translates a message by ID. Missing IDs render as the ID itself.
func (t *Translator) T(msgID string) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func (t *Translator) Td(msgID string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: msgID, TemplateData: data})
}

// Tp translates a pluralized message by ID.
func (t *Translator) Tp(msgID string, count int) string {
	return t.localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (t *Translator) localize(cfg *i18n.LocalizeConfig) string {
	s, err := t.loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "lang", t.lang, "error", err)
		return cfg.MessageID
	}
	return s
}

type ctxKey struct{}

// WithTranslator stores a translator in the context.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the context's translator, or an English one.
func FromContext(ctx context.Context) *Translator {
	if t, ok := ctx.Value(ctxKey{}).(*Translator); ok {
		return t
	}
	return MustNew("en")
}

// T translates a message by ID using the context's translator.
func T(ctx context.Context, msgID string) string {
	return FromContext(ctx).T(msgID)
}

// Td translates a message by ID with template data using the context's translator.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	return FromContext(ctx).Td(msgID, data)
}

// resolve picks the first supported language among the candidates.
func resolve(candidates ...string) string {
	supported := make([]language.Tag, len(Supported))
	for i, s := range Supported {
		supported[i] = language.MustParse(s)
	}
	matcher := language.NewMatcher(supported)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(c)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf != language.No {
			return Supported[idx]
		}
	}
	return Supported[0]
}

// LanguageName renders a BCP 47 tag as an English language name, used in
// prompts. Empty or unparseable tags render as English.
func LanguageName(tag string) string {
	if tag == "" {
		return "English"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "English"
	}
	if name := display.Languages(language.English).Name(t); name != "" {
		return name
	}
	return "English"
}

// SubjectName returns the localized subject label.
func (t *Translator) SubjectName(s exam.Subject) string {
	return t.T("Subject" + titleCase(string(s)))
}

// DifficultyName returns the localized difficulty label.
func (t *Translator) DifficultyName(d exam.Difficulty) string {
	return t.T("Difficulty" + titleCase(string(d)))
}

// Reason returns the localized explanation of a collaborator failure.
func (t *Translator) Reason(kind llm.FailureKind) string {
	switch kind {
	case llm.FailureAuthInvalid:
		return t.T("ReasonAuthInvalid")
	case llm.FailureRateLimited:
		return t.T("ReasonRateLimited")
	case llm.FailureMalformedResponse:
		return t.T("ReasonMalformedResponse")
	}
	return t.T("ReasonServiceUnavailable")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
