package middleware

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError answers htmx requests with JSON and everything else with plain
// text. htmx leaves the DOM alone on error statuses; HX-Reswap makes that
// explicit for proxies that rewrite the status.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	h := w.Header()
	h.Set("Cache-Control", "no-store")
	if !IsHTMX(r.Context()) && r.Header.Get("HX-Request") != "true" {
		http.Error(w, msg, code)
		return
	}
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("HX-Reswap", "none")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, RequestID: chimw.GetReqID(r.Context())})
}
