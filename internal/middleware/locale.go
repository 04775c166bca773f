package middleware

import (
	"net/http"

	"finitefield.org/course-landing/internal/i18n"
)

const langCookieName = "lang"

// Locale resolves the page language from, in order, the lang query
// parameter, the session, the lang cookie and Accept-Language. An explicit
// query choice is remembered in the session and cookie.
func Locale(bundle *i18n.Bundle, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			lang := ""
			if q, ok := bundle.Match(r.URL.Query().Get("lang")); ok {
				lang = q
				if s.Lang != q {
					s.Lang = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    q,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			} else if l, ok := bundle.Match(s.Lang); ok {
				lang = l
			} else if c, err := r.Cookie(langCookieName); err == nil {
				if l, ok := bundle.Match(c.Value); ok {
					lang = l
				}
			}
			if lang == "" {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}

// Lang returns the language chosen by Locale, or "en" outside it.
func Lang(r *http.Request) string {
	if v, ok := r.Context().Value(langKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}
