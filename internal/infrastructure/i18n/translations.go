package i18n

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"coachbot/internal/ports/output"
)

//go:embed active.*.toml
var localeFS embed.FS

// Ensure Translator implements the output.T port.
var _ output.T = (*Translator)(nil)

// inlineMessageID is never defined in the bundle, so Render always goes
// through the supplied template.
const inlineMessageID = "inline.template"

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator builds a Translator backed by go-i18n using the given default
// locale (e.g. "en").
//
// It currently loads translations from the embedded active.*.toml files.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Printf("i18n: failed to load %s: %v", file, err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
	}
}

func (t *Translator) localizer(locale string) *i18n.Localizer {
	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())
	return i18n.NewLocalizer(t.bundle, languages...)
}

// T renders the message identified by key for the given locale.
// If the key/locale is not found, it falls back to the default locale,
// then finally to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	msg, err := t.localizer(locale).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil && !fellBack(msg, err) {
		log.Printf("i18n: localize failed (key=%s, locale=%s): %v", key, locale, err)
		return key
	}
	return msg
}

// Render executes a user-supplied template such as "{{.name}}: you are #{{.pos}}".
func (t *Translator) Render(locale, template string, data map[string]any) (string, error) {
	msg, err := t.localizer(locale).Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: inlineMessageID, Other: template},
		TemplateData:   data,
	})
	if err != nil && !fellBack(msg, err) {
		return "", fmt.Errorf("render template: %w", err)
	}
	return msg, nil
}

// fellBack reports a message served from the default language, which go-i18n
// signals with a MessageNotFoundErr next to a usable translation.
func fellBack(msg string, err error) bool {
	var notFound *i18n.MessageNotFoundErr
	return msg != "" && errors.As(err, &notFound)
}
