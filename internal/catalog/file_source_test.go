package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureMarkdown = `---
title: IELTS Course
cta_text:
  name: Enroll
  value: enroll
checklist:
  - id: "1"
    text: 50 video lectures
sections:
  - type: faq
    name: FAQ
    values:
      - id: q1
        question: Is it online?
        answer: "<p>Yes</p>"
---
Prepare for **IELTS** at home.
`

func writeFixture(t *testing.T, dir, lang, slug, body string) {
	t.Helper()
	path := filepath.Join(dir, "products", lang)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, slug+".md"), []byte(body), 0o644))
}

func TestFileSourceReadsFrontMatterAndMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "en", "ielts-course", fixtureMarkdown)

	p, err := NewFileSource(dir).GetProduct(context.Background(), "ielts-course", "en")
	require.NoError(t, err)
	require.Equal(t, "IELTS Course", p.Title)
	require.Equal(t, "ielts-course", p.Slug)
	require.Contains(t, p.Description, "<strong>IELTS</strong>")
	require.Equal(t, "Enroll", p.CTA.Name)

	_, items, ok := p.FAQ()
	require.True(t, ok)
	require.Equal(t, "Is it online?", items[0].Question)
}

func TestFileSourceFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "en", "ielts-course", fixtureMarkdown)

	p, err := NewFileSource(dir).GetProduct(context.Background(), "ielts-course", "bn")
	require.NoError(t, err)
	require.Equal(t, "IELTS Course", p.Title)
}

func TestFileSourceMissing(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(t.TempDir()).GetProduct(context.Background(), "nope", "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileSourceBadFrontMatter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "en", "broken", "---\ntitle: [unterminated\n---\n")

	_, err := NewFileSource(dir).GetProduct(context.Background(), "broken", "en")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	fm, body := splitFrontMatter("---\na: 1\n---\n\nbody")
	require.Equal(t, "a: 1", fm)
	require.Equal(t, "body", body)

	fm, body = splitFrontMatter("no front matter")
	require.Empty(t, fm)
	require.Equal(t, "no front matter", body)
}
