package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	productsPath          = "discovery-service/api/v1/products"
	sourcePlatformHeader  = "X-TENMS-SOURCE-PLATFORM"
	defaultSourcePlatform = "web"
	defaultTimeout        = 10 * time.Second
	// DefaultRevalidate matches the hourly revalidation window of the page.
	DefaultRevalidate = time.Hour
	maxErrorBody      = 4 << 10
)

// Languages the discovery service accepts.
const (
	LangEnglish = "en"
	LangBangla  = "bn"
)

// ErrNotFound is returned when the product does not exist.
var ErrNotFound = errors.New("catalog: product not found")

// StatusError reports a non-2xx answer from the discovery service.
type StatusError struct {
	StatusCode int
	Slug       string
	Lang       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("catalog: product %q (%s): upstream status %d", e.Slug, e.Lang, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Source loads product documents.
type Source interface {
	GetProduct(ctx context.Context, slug, lang string) (*Product, error)
}

var tracer = otel.Tracer("finitefield.org/course-landing/internal/catalog")

// Client fetches product documents from the discovery service.
type Client struct {
	baseURL  string
	platform string
	http     *http.Client
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
	group    singleflight.Group
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCache sets the revalidation cache. A nil cache disables caching.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRevalidate sets how long a fetched document is served from cache.
func WithRevalidate(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithSourcePlatform overrides the X-TENMS-SOURCE-PLATFORM header value.
func WithSourcePlatform(p string) Option {
	return func(c *Client) {
		if p = strings.TrimSpace(p); p != "" {
			c.platform = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a discovery service client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		platform: defaultSourcePlatform,
		http:     &http.Client{Timeout: defaultTimeout},
		ttl:      DefaultRevalidate,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProduct returns the product document for slug in lang. Failures are
// surfaced to the caller; nothing is retried.
func (c *Client) GetProduct(ctx context.Context, slug, lang string) (*Product, error) {
	slug = SanitizeSlug(slug)
	lang = NormalizeLang(lang)
	ctx, span := tracer.Start(ctx, "catalog.GetProduct", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("product.slug", slug), attribute.String("product.lang", lang))

	if slug == "" {
		return nil, ErrNotFound
	}

	key := cacheKey(slug, lang)
	if raw, ok := c.cached(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		p, err := decodeProduct(raw)
		if err == nil {
			return p, nil
		}
		c.logger.Warn("catalog: discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	ch := c.group.DoChan(key, func() (any, error) {
		// the fetch is shared, so it must not die with whichever request started it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout())
		defer cancel()
		raw, err := c.fetch(fctx, slug, lang)
		if err != nil {
			return nil, err
		}
		if _, err := decodeProduct(raw); err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(fctx, key, raw, c.ttl); err != nil {
				c.logger.Warn("catalog: cache store failed", zap.String("key", key), zap.Error(err))
			}
		}
		return raw, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		err := fmt.Errorf("catalog: fetch %s: %w", slug, ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	case res = <-ch:
	}
	span.SetAttributes(attribute.Bool("fetch.shared", res.Shared))
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, res.Err
	}
	// Each caller decodes its own copy so no two requests share a Product.
	return decodeProduct(res.Val.([]byte))
}

// fetchTimeout bounds a shared fetch even when a custom HTTP client has no
// timeout of its own.
func (c *Client) fetchTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return defaultTimeout
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("catalog: cache lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return raw, true
}

// fetch returns the raw `data` member of the response envelope.
func (c *Client) fetch(ctx context.Context, slug, lang string) (raw []byte, err error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
		fetchTotal.WithLabelValues(fetchOutcome(err)).Inc()
	}()

	endpoint, err := url.JoinPath(c.baseURL, productsPath, url.PathEscape(slug))
	if err != nil {
		return nil, fmt.Errorf("catalog: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("lang", lang)
	req.URL.RawQuery = q.Encode()
	req.Header.Set(sourcePlatformHeader, c.platform)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Slug:       slug,
			Lang:       lang,
			Message:    envelopeMessage(body),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("catalog: decode response for %s: %w", slug, err)
	}
	data := []byte(strings.TrimSpace(string(env.Data)))
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrNotFound
	}
	return data, nil
}

// envelope is the discovery service response wrapper; only Data is used.
type envelope struct {
	Code       int             `json:"code"`
	Data       json.RawMessage `json:"data"`
	Error      json.RawMessage `json:"error"`
	Message    string          `json:"message"`
	Payload    json.RawMessage `json:"payload"`
	StatusCode int             `json:"status_code"`
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return strings.TrimSpace(env.Message)
}

func decodeProduct(raw []byte) (*Product, error) {
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("catalog: decode product: %w", err)
	}
	return &p, nil
}

func fetchOutcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &se):
		return "status_" + fmt.Sprint(se.StatusCode/100) + "xx"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func cacheKey(slug, lang string) string {
	return strings.Join([]string{"product", lang, slug}, "|")
}

// NormalizeLang maps any language tag onto en or bn.
func NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == LangBangla {
		return LangBangla
	}
	return LangEnglish
}

// SanitizeSlug lower-cases slug and rejects path traversal.
func SanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" {
		return ""
	}
	if strings.Contains(slug, "..") || strings.ContainsRune(slug, '/') || strings.ContainsRune(slug, os.PathSeparator) {
		return ""
	}
	return slug
}
