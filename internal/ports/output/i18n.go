package output

// T resolves user-facing text. Keys name bundled messages; templates are
// admin-supplied strings such as queue join messages or room names.
type T interface {
	// T renders the bundled message key in locale, falling back to the
	// default locale and finally to the key itself. data may be nil.
	T(locale, key string, data map[string]any) string
	// Render interpolates template with data and fails when it is malformed.
	Render(locale, template string, data map[string]any) (string, error)
}
