package middleware

import (
	"context"
	"net/http"

	"finitefield.org/trip-planner/internal/i18n"
)

const localeContextKey contextKey = "locale"

// LocaleQueryParam overrides the language and sticks to the session.
const LocaleQueryParam = "hl"

// Locale resolves the request language from the hl query parameter, then the
// session, then Accept-Language, falling back to the bundle default.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Language")
			sd := SessionFromContext(r.Context())

			lang := ""
			if hl := bundle.Normalize(r.URL.Query().Get(LocaleQueryParam)); hl != "" {
				lang = hl
				sd.SetLocale(hl)
			}
			if lang == "" {
				lang = bundle.Normalize(sd.Locale)
			}
			if lang == "" {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}

			ctx := context.WithValue(r.Context(), localeContextKey, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the resolved language, or "" when unresolved.
func LocaleFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(localeContextKey).(string)
	return lang
}
