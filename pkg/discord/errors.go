package discord

import (
	"errors"

	"coachbot/internal/domain"
	"coachbot/internal/ports/output"
)

// ErrorMessageKey maps a domain error to its i18n key.
func ErrorMessageKey(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.Code(err); code != "" {
		return "errors." + code
	}
	return "errors.unexpected"
}

// ErrorMessage resolves err to a user-facing message in locale.
func ErrorMessage(t output.T, locale string, err error) string {
	if err == nil {
		return ""
	}
	data := map[string]any{}
	var perr *domain.ParseError
	if errors.As(err, &perr) {
		data["detail"] = perr.Error()
	}
	return t.T(locale, ErrorMessageKey(err), data)
}
