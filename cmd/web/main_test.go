package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/course-landing/internal/catalog"
	"finitefield.org/course-landing/internal/config"
	"finitefield.org/course-landing/internal/i18n"
	"finitefield.org/course-landing/internal/viewstate"
)

const longTestimonial = "Munzereen apu's classes helped me understand exactly what examiners look for in Writing Task 2, and the mock tests made the real exam feel familiar on the day itself."

const productJSON = `{
  "id": 153,
  "slug": "ielts-course",
  "title": "IELTS Course <script>alert(1)</script>by Munzereen Shahid",
  "description": "<p onclick=\"x()\">Get complete preparation for <b>IELTS</b></p>",
  "cta_text": {"name": "Enroll", "value": "enroll"},
  "media": [
    {"name": "preview_gallery", "resource_type": "video", "resource_value": "zrlYnaZftEQ", "thumbnail_url": "https://cdn.10minuteschool.com/trailer.png"},
    {"name": "preview_gallery", "resource_type": "image", "resource_value": "https://cdn.10minuteschool.com/banner.png"},
    {"name": "thumbnail", "resource_type": "image", "resource_value": "https://cdn.10minuteschool.com/thumb.png"}
  ],
  "checklist": [
    {"id": "1", "icon": "https://cdn.10minuteschool.com/i1.png", "text": "item one"},
    {"id": "2", "icon": "https://cdn.10minuteschool.com/i2.png", "text": "item two"},
    {"id": "3", "icon": "https://cdn.10minuteschool.com/i3.png", "text": "item three"},
    {"id": "4", "icon": "https://cdn.10minuteschool.com/i4.png", "text": "item four"},
    {"id": "5", "icon": "https://cdn.10minuteschool.com/i5.png", "text": "item five"},
    {"id": "6", "icon": "https://cdn.10minuteschool.com/i6.png", "text": "item six"},
    {"id": "7", "icon": "https://cdn.10minuteschool.com/i7.png", "text": "item seven"},
    {"id": "8", "icon": "https://cdn.10minuteschool.com/i8.png", "text": "item eight"}
  ],
  "sections": [
    {"type": "instructors", "name": "Course instructor", "values": [
      {"name": "Munzereen Shahid", "image": "https://cdn.10minuteschool.com/ms.jpg", "description": "<p>IELTS: 8.5</p>"}
    ]},
    {"type": "faq", "name": "FAQ", "values": [
      {"id": "faq-1", "question": "How do I pay?", "answer": "<p>With bKash</p>"},
      {"id": "faq-2", "question": "How long is access?", "answer": "<p>Lifetime</p>"}
    ]},
    {"type": "about", "name": "Course details", "values": [
      {"id": "about-1", "title": "<h2>Who is it for</h2>", "description": "<p>Students going abroad</p>"},
      {"id": "about-2", "title": "<h2>About the course</h2>", "description": "<p>All four modules</p>"}
    ]},
    {"type": "testimonials", "name": "Students", "values": [
      {"id": "t1", "name": "nusrat", "description": "IELTS Score: 8", "testimonial": "` + longTestimonial + `", "profile_image": "https://evil.example.com/a.jpg"},
      {"id": "t2", "name": "Tahmid", "description": "IELTS Score: 7.5", "testimonial": "", "thumb": "https://cdn.10minuteschool.com/t2.jpg", "video_url": "dQw4w9WgXcQ"}
    ]},
    {"type": "group_join_engagement", "name": "", "values": [
      {"id": "g1", "title": "Free IELTS reading guide", "description": "<p>Download it free</p>", "thumbnail": "https://cdn.10minuteschool.com/guide.png", "top_left_icon_img": "https://cdn.10minuteschool.com/pdf.png", "cta": {"text": "Download free", "clicked_url": "https://example.com", "color": "#1CAB55"}, "background": {"image": "https://cdn.10minuteschool.com/bg.png", "primary_color": "#0E1A2B", "secondary_color": "#000000"}}
    ]},
    {"type": "faq", "name": "Duplicate FAQ", "values": [
      {"id": "dup", "question": "ignored", "answer": "ignored"}
    ]}
  ]
}`

const bareProductJSON = `{
  "slug": "bare",
  "title": "Bare Course",
  "description": "<p>Only the hero</p>",
  "cta_text": {"name": "Buy now"},
  "checklist": [{"id": "1", "text": "one thing"}],
  "sections": []
}`

// upstream fakes the discovery service.
type upstream struct {
	mu    sync.Mutex
	paths []string
	langs []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.paths = append(u.paths, r.URL.Path)
	u.langs = append(u.langs, r.URL.Query().Get("lang"))
	u.mu.Unlock()

	slug := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	var data string
	switch slug {
	case "ielts-course":
		data = productJSON
	case "bare":
		data = bareProductJSON
	case "broken":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"boom"}`)
		return
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"code":200,"data":`+data+`,"error":[],"message":"","payload":[],"status_code":200}`)
}

func (u *upstream) lastLang() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.langs) == 0 {
		return ""
	}
	return u.langs[len(u.langs)-1]
}

func (u *upstream) lastPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.paths) == 0 {
		return ""
	}
	return u.paths[len(u.paths)-1]
}

type testEnv struct {
	app      *app
	handler  http.Handler
	clock    *viewstate.ManualClock
	upstream *upstream
}

// newTestApp builds the app the way run() does, against a fake upstream and
// a manual clock.
func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	cfg, err := config.Load(context.Background(), config.WithoutSystemEnv(), config.WithEnvFile(""),
		config.WithEnvMap(map[string]string{
			"LANDING_TEMPLATES_DIR":       "../../templates",
			"LANDING_PUBLIC_DIR":          "../../public",
			"LANDING_LOCALES_DIR":         "../../locales",
			"LANDING_API_BASE_URL":        srv.URL,
			"LANDING_CACHE":               "none",
			"LANDING_SITE_URL":            "https://10minuteschool.com",
			"LANDING_SESSION_SIGNING_KEY": "test-key",
		}))
	require.NoError(t, err)

	bundle, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.DefaultLang, cfg.Site.Languages)
	require.NoError(t, err)
	rend, err := newRenderer(cfg.Site.TemplatesDir, true, bundle)
	require.NoError(t, err)

	clock := viewstate.NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store := viewstate.NewStore(
		viewstate.WithClock(clock),
		viewstate.WithToastDelay(cfg.ViewState.ToastDelay),
		viewstate.WithAutoplayInterval(cfg.ViewState.AutoplayInterval),
	)
	t.Cleanup(store.Close)

	source := catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithCache(nil))
	a := newApp(cfg, nil, source, store, bundle, rend)
	return &testEnv{app: a, handler: a.routes(), clock: clock, upstream: up}
}

// visitor replays cookies between requests like a browser would.
type visitor struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newVisitor(t *testing.T, h http.Handler) *visitor {
	return &visitor{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (v *visitor) do(req *http.Request) *httptest.ResponseRecorder {
	v.t.Helper()
	for _, c := range v.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		v.cookies[c.Name] = c
	}
	return rec
}

func (v *visitor) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept-Language", "en")
	return v.do(req)
}

// htmx issues a fragment request carrying the CSRF token.
func (v *visitor) htmx(method, path string) *httptest.ResponseRecorder {
	v.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("HX-Request", "true")
	if c, ok := v.cookies["csrf_token"]; ok {
		req.Header.Set("X-CSRF-Token", c.Value)
	}
	return v.do(req)
}

func TestHealthzOK(t *testing.T) {
	env := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Fatalf("expected body 'ok', got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestApp(t)
	newVisitor(t, env.handler).get("/healthz")

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAssetsServed(t *testing.T) {
	env := newTestApp(t)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/js/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	env := newTestApp(t)
	rec := newVisitor(t, env.handler).get("/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `data-status="404"`)
}
