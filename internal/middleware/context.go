package middleware

import "context"

type (
	htmxKey    struct{}
	sessionKey struct{}
	langKey    struct{}
)

// htmxInfo is what the HX-* request headers tell us about a fragment request.
type htmxInfo struct {
	request bool
	target  string
}

// WithHTMX records whether the request came from htmx.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, htmxKey{}, htmxInfo{request: is})
}

func withHTMXTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, htmxKey{}, htmxInfo{request: true, target: target})
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(htmxKey{}).(htmxInfo)
	return v.request
}

// HTMXTarget returns the id of the element htmx will swap, if it sent one.
func HTMXTarget(ctx context.Context) string {
	v, _ := ctx.Value(htmxKey{}).(htmxInfo)
	return v.target
}

// WithLang stores the resolved language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}
