package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"finitefield.org/course-landing/internal/format"
	"finitefield.org/course-landing/internal/i18n"
	mw "finitefield.org/course-landing/internal/middleware"
	"finitefield.org/course-landing/internal/observability"
)

// renderer parses the template tree once, or on every request in dev mode.
type renderer struct {
	dir    string
	dev    bool
	bundle *i18n.Bundle
	cache  *template.Template
}

func newRenderer(dir string, dev bool, bundle *i18n.Bundle) (*renderer, error) {
	r := &renderer{dir: dir, dev: dev, bundle: bundle}
	t, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.cache = t
	return r, nil
}

func (r *renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			return r.bundle.T(lang, key)
		},
		"tf": func(lang, key string, args ...any) string {
			return r.bundle.Tf(lang, key, args...)
		},
		"digits": format.Digits,
		"num":    format.Int,
		"add":    func(a, b int) int { return a + b },
		"css":    func(s string) template.CSS { return template.CSS(s) },
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"jsonld": func(s string) template.JS { return template.JS(s) },
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd argument count")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}

func (r *renderer) parse() (*template.Template, error) {
	// ParseGlob doesn't support **, so walk the tree.
	var files []string
	if err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", r.dir)
	}
	return template.New("_root").Funcs(r.funcs()).ParseFiles(files...)
}

func (r *renderer) templates() (*template.Template, error) {
	if r.dev {
		return r.parse()
	}
	if r.cache == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	return r.cache, nil
}

// page executes the base layout with status.
func (r *renderer) page(w http.ResponseWriter, req *http.Request, status int, data any) {
	r.execute(w, req, status, "base", data)
}

// fragment executes a single named template for htmx swaps.
func (r *renderer) fragment(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.execute(w, req, http.StatusOK, name, data)
}

// execute renders into a buffer first so a template error never leaves a
// half-written 200 behind.
func (r *renderer) execute(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	logger := observability.FromContext(req.Context())
	t, err := r.templates()
	if err != nil {
		logger.Error("template parse failed", zap.Error(err))
		http.Error(w, "template parse error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("template execute failed",
			zap.String("template", name),
			zap.String("hx_target", mw.HTMXTarget(req.Context())),
			zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
