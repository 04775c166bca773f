package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

const defaultContentDir = "content"

// FileSource serves product documents from local markdown files laid out as
// <dir>/products/<lang>/<slug>.md. The YAML front matter carries the document
// fields; a non-empty markdown body replaces the description.
type FileSource struct {
	dir string
	md  goldmark.Markdown
}

// NewFileSource returns a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultContentDir
	}
	return &FileSource{dir: dir, md: goldmark.New()}
}

// Dir returns the content root.
func (s *FileSource) Dir() string { return s.dir }

// GetProduct reads the requested language first and falls back to English.
func (s *FileSource) GetProduct(_ context.Context, slug, lang string) (*Product, error) {
	slug = SanitizeSlug(slug)
	if slug == "" {
		return nil, ErrNotFound
	}
	lang = NormalizeLang(lang)
	priority := []string{lang}
	if lang != LangEnglish {
		priority = append(priority, LangEnglish)
	}
	for _, candidate := range priority {
		p, err := s.read(slug, candidate)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (s *FileSource) read(slug, lang string) (*Product, error) {
	file := filepath.Join(s.dir, "products", lang, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	fm, body := splitFrontMatter(string(data))
	doc := map[string]any{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
			return nil, fmt.Errorf("catalog: parse front matter %s: %w", file, err)
		}
	}
	if strings.TrimSpace(body) != "" {
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(body), &buf); err != nil {
			return nil, fmt.Errorf("catalog: render markdown %s: %w", file, err)
		}
		doc["description"] = buf.String()
	}
	if _, ok := doc["slug"]; !ok {
		doc["slug"] = slug
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode %s: %w", file, err)
	}
	return decodeProduct(raw)
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}
