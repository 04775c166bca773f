package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finitefield.org/course-landing/internal/catalog"
	"finitefield.org/course-landing/internal/config"
	"finitefield.org/course-landing/internal/i18n"
	"finitefield.org/course-landing/internal/observability"
	"finitefield.org/course-landing/internal/viewstate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("web: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bundle, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.DefaultLang, cfg.Site.Languages)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	source, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	rend, err := newRenderer(cfg.Site.TemplatesDir, cfg.Site.DevMode, bundle)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	store := viewstate.NewStore(
		viewstate.WithTTL(cfg.ViewState.TTL),
		viewstate.WithToastDelay(cfg.ViewState.ToastDelay),
		viewstate.WithAutoplayInterval(cfg.ViewState.AutoplayInterval),
	)
	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		store.Run(ctx, cfg.ViewState.SweepInterval)
	}()

	a := newApp(cfg, logger, source, store, bundle, rend)
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", cfg.Site.DevMode),
			zap.String("catalog", cfg.Catalog.Source),
			zap.String("cache", cfg.Cache.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	<-storeDone
	return nil
}

// newSource picks the product source and its revalidation cache.
func newSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Source, func(), error) {
	noop := func() {}
	if cfg.Catalog.Source == config.SourceFile {
		logger.Info("serving products from local content", zap.String("dir", cfg.Catalog.ContentDir))
		return catalog.NewFileSource(cfg.Catalog.ContentDir), noop, nil
	}

	opts := []catalog.Option{
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithRevalidate(cfg.Catalog.Revalidate),
		catalog.WithSourcePlatform(cfg.Catalog.SourcePlatform),
		catalog.WithLogger(logger.Named("catalog")),
	}
	closer := noop
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := catalog.NewRedisCache(ctx, catalog.RedisConfig{
			Address:  cfg.Cache.RedisAddress,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init redis cache: %w", err)
		}
		opts = append(opts, catalog.WithCache(rc))
		closer = func() { _ = rc.Close() }
	case config.CacheMemory:
		opts = append(opts, catalog.WithCache(catalog.NewMemoryCache(time.Now)))
	}
	return catalog.NewClient(cfg.Catalog.BaseURL, opts...), closer, nil
}
