package i18n

import (
	"log/slog"
	"net/http"
)

// Middleware injects a translator into every request context. The
// request's Accept-Language header wins over the configured default.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := New("", r.Header.Get("Accept-Language"), lang)
			if err != nil {
				slog.Warn("falling back to default language", "error", err)
				t = MustNew(lang)
			}
			next.ServeHTTP(w, r.WithContext(WithTranslator(r.Context(), t)))
		})
	}
}
