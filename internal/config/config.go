package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile           = ".env"
	defaultPort              = "8080"
	defaultReadHeaderTimeout = 10 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultAPIBaseURL        = "https://api.10minuteschool.com"
	defaultAPITimeout        = 10 * time.Second
	defaultSourcePlatform    = "web"
	defaultRevalidate        = time.Hour
	defaultSlug              = "ielts-course"
	defaultLang              = "en"
	defaultToastDelay        = 3 * time.Second
	defaultAutoplayInterval  = 5 * time.Second
	defaultViewStateTTL      = 30 * time.Minute
	defaultSweepInterval     = time.Minute
	defaultSiteName          = "10 Minute School"
)

var defaultImageHosts = []string{"cdn.10minuteschool.com", "s3.ap-southeast-1.amazonaws.com"}

// Catalog sources.
const (
	SourceRemote = "remote"
	SourceFile   = "file"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	ViewState ViewStateConfig
	Session   SessionConfig
	Analytics AnalyticsConfig
	Log       LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// SiteConfig controls rendering and routing.
type SiteConfig struct {
	Env          string
	DevMode      bool
	Name         string
	BaseURL      string
	TemplatesDir string
	PublicDir    string
	LocalesDir   string
	DefaultSlug  string
	DefaultLang  string
	Languages    []string
}

// CatalogConfig describes where product documents come from.
type CatalogConfig struct {
	Source         string
	BaseURL        string
	Timeout        time.Duration
	SourcePlatform string
	Revalidate     time.Duration
	ContentDir     string
	ImageHosts     []string
}

// CacheConfig selects the revalidation cache backend.
type CacheConfig struct {
	Backend       string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ViewStateConfig tunes the interactive widgets.
type ViewStateConfig struct {
	ToastDelay       time.Duration
	AutoplayInterval time.Duration
	TTL              time.Duration
	SweepInterval    time.Duration
}

// SessionConfig holds cookie signing settings.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// AnalyticsConfig holds client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
}

type LogConfig struct {
	Level string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from, in increasing precedence, the .env file,
// the process environment and an explicit env map.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run injects PORT; the prefixed key wins when both are set.
	port := stringWithDefault(lookup, "LANDING_PORT", stringWithDefault(lookup, "PORT", defaultPort))
	env := strings.ToLower(stringWithDefault(lookup, "LANDING_ENV", "local"))

	cfg := Config{
		Server: ServerConfig{
			Port:              port,
			ReadHeaderTimeout: durationWithDefault(lookup, "LANDING_READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),
			ReadTimeout:       durationWithDefault(lookup, "LANDING_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      durationWithDefault(lookup, "LANDING_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       durationWithDefault(lookup, "LANDING_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout:   durationWithDefault(lookup, "LANDING_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Site: SiteConfig{
			Env:          env,
			DevMode:      boolWithDefault(lookup, "LANDING_DEV", boolWithDefault(lookup, "DEV", false)),
			Name:         stringWithDefault(lookup, "LANDING_SITE_NAME", defaultSiteName),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "LANDING_SITE_URL", ""), "/"),
			TemplatesDir: stringWithDefault(lookup, "LANDING_TEMPLATES_DIR", "templates"),
			PublicDir:    stringWithDefault(lookup, "LANDING_PUBLIC_DIR", "public"),
			LocalesDir:   stringWithDefault(lookup, "LANDING_LOCALES_DIR", "locales"),
			DefaultSlug:  stringWithDefault(lookup, "LANDING_DEFAULT_SLUG", defaultSlug),
			DefaultLang:  strings.ToLower(stringWithDefault(lookup, "LANDING_DEFAULT_LANG", defaultLang)),
			Languages:    csvWithDefault(lookup, "LANDING_LANGUAGES", []string{"en", "bn"}),
		},
		Catalog: CatalogConfig{
			Source:         strings.ToLower(stringWithDefault(lookup, "LANDING_CATALOG_SOURCE", SourceRemote)),
			BaseURL:        stringWithDefault(lookup, "LANDING_API_BASE_URL", defaultAPIBaseURL),
			Timeout:        durationWithDefault(lookup, "LANDING_API_TIMEOUT", defaultAPITimeout),
			SourcePlatform: stringWithDefault(lookup, "LANDING_SOURCE_PLATFORM", defaultSourcePlatform),
			Revalidate:     durationWithDefault(lookup, "LANDING_REVALIDATE", defaultRevalidate),
			ContentDir:     stringWithDefault(lookup, "LANDING_CONTENT_DIR", "content"),
			ImageHosts:     csvWithDefault(lookup, "LANDING_IMAGE_HOSTS", defaultImageHosts),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(stringWithDefault(lookup, "LANDING_CACHE", CacheMemory)),
			RedisAddress:  stringWithDefault(lookup, "LANDING_REDIS_ADDRESS", ""),
			RedisPassword: stringWithDefault(lookup, "LANDING_REDIS_PASSWORD", ""),
			RedisDB:       intWithDefault(lookup, "LANDING_REDIS_DB", 0),
			RedisPrefix:   stringWithDefault(lookup, "LANDING_REDIS_PREFIX", "course-landing:"),
		},
		ViewState: ViewStateConfig{
			ToastDelay:       durationWithDefault(lookup, "LANDING_TOAST_DELAY", defaultToastDelay),
			AutoplayInterval: durationWithDefault(lookup, "LANDING_AUTOPLAY_INTERVAL", defaultAutoplayInterval),
			TTL:              durationWithDefault(lookup, "LANDING_VIEWSTATE_TTL", defaultViewStateTTL),
			SweepInterval:    durationWithDefault(lookup, "LANDING_VIEWSTATE_SWEEP", defaultSweepInterval),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "LANDING_SESSION_SIGNING_KEY", ""),
			Secure:     boolWithDefault(lookup, "LANDING_SECURE_COOKIES", env == "prod"),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "LANDING_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "LANDING_GTM_CONTAINER_ID", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LANDING_LOG_LEVEL", stringWithDefault(lookup, "LOG_LEVEL", "info"))),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the configured port.
func (c ServerConfig) Addr() string { return ":" + c.Port }

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	} else if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Catalog.Source {
	case SourceRemote:
		if strings.TrimSpace(cfg.Catalog.BaseURL) == "" {
			missing = append(missing, "Catalog.BaseURL")
		}
	case SourceFile:
		if strings.TrimSpace(cfg.Catalog.ContentDir) == "" {
			missing = append(missing, "Catalog.ContentDir")
		}
	default:
		missing = append(missing, "Catalog.Source")
	}
	switch cfg.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if cfg.Cache.RedisAddress == "" {
			missing = append(missing, "Cache.RedisAddress")
		}
	default:
		missing = append(missing, "Cache.Backend")
	}
	if !contains(cfg.Site.Languages, cfg.Site.DefaultLang) {
		missing = append(missing, "Site.DefaultLang")
	}
	if strings.TrimSpace(cfg.Site.DefaultSlug) == "" {
		missing = append(missing, "Site.DefaultSlug")
	}
	if cfg.Site.Env == "prod" && cfg.Session.SigningKey == "" {
		missing = append(missing, "Session.SigningKey")
	}
	if cfg.Catalog.Revalidate < 0 {
		missing = append(missing, "Catalog.Revalidate")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
