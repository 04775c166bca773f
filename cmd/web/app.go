package main

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/course-landing/internal/catalog"
	"finitefield.org/course-landing/internal/config"
	"finitefield.org/course-landing/internal/handlers"
	"finitefield.org/course-landing/internal/i18n"
	mw "finitefield.org/course-landing/internal/middleware"
	"finitefield.org/course-landing/internal/observability"
	"finitefield.org/course-landing/internal/viewstate"
)

// app carries the process-wide dependencies of the handlers.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	source    catalog.Source
	store     *viewstate.Store
	bundle    *i18n.Bundle
	sessions  *mw.Sessions
	render    *renderer
	hosts     imageHosts
	analytics handlers.Analytics
	now       func() time.Time
}

func newApp(cfg config.Config, logger *zap.Logger, source catalog.Source, store *viewstate.Store, bundle *i18n.Bundle, rend *renderer) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		source:    source,
		store:     store,
		bundle:    bundle,
		sessions:  mw.NewSessions(cfg.Session.SigningKey, cfg.Session.Secure, logger),
		render:    rend,
		hosts:     newImageHosts(cfg.Catalog.ImageHosts),
		analytics: handlers.AnalyticsFromConfig(cfg.Analytics),
		now:       time.Now,
	}
}

// routes builds the router. Fragment endpoints sit behind RequireHTMX and
// the CSRF double submit check.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.TraceMiddleware())
	r.Use(observability.InjectLoggerMiddleware(a.logger))
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(observability.RecoveryMiddleware(a.logger))
	r.Use(observability.Metrics)
	r.Use(chimw.Compress(5))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", observability.Handler())
	r.Handle("/assets/*", mw.AssetsWithCache(a.cfg.Site.PublicDir+"/assets", "/assets", a.cfg.Site.DevMode))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(mw.HTMX)
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.bundle, a.sessions.Secure()))
		r.Use(mw.CSRF(a.sessions.Secure()))
		r.Use(mw.VaryLocale)

		r.Get("/", a.homeHandler)

		r.Route("/products/{slug}", func(r chi.Router) {
			r.Get("/", a.productHandler)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireHTMX)
				a.fragmentRoutes(r)
			})
		})
	})

	r.NotFound(a.notFoundHandler)
	return r
}

func (a *app) fragmentRoutes(r chi.Router) {
	r.Post("/faq/{id}", a.faqToggleHandler)
	r.Post("/about/{id}", a.aboutSelectHandler)
	r.Post("/features/{id}", a.featureSelectHandler)
	r.Post("/payments/{id}", a.paymentSelectHandler)

	r.Get("/media", a.mediaFrag)
	r.Post("/media/{op}", a.mediaOpHandler)

	r.Get("/testimonials", a.testimonialsFrag)
	r.Post("/testimonials/{op}", a.testimonialOpHandler)
	r.Post("/testimonials/play/{id}", a.testimonialPlayHandler)
	r.Post("/testimonials/more/{id}", a.testimonialMoreHandler)

	r.Post("/images/{key}/failed", a.imageFailedHandler)

	r.Get("/toast", a.toastFrag)
	r.Post("/toast", a.toastTriggerHandler)

	r.Post("/leave", a.leaveHandler)
}
