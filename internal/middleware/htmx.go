package middleware

import "net/http"

// HTMX records on the context whether the request came from htmx, along with
// the element it targets.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.Header.Get("HX-Request") == "true" {
			ctx = withHTMXTarget(ctx, r.Header.Get("HX-Target"))
		} else {
			ctx = WithHTMX(ctx, false)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireHTMX rejects fragment endpoints hit outside htmx with 400.
func RequireHTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HX-Request") != "true" {
			WriteError(w, r, http.StatusBadRequest, "htmx request required")
			return
		}
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r)
	})
}
