package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// CourseInput carries what the Course schema needs.
type CourseInput struct {
	Name        string
	Description string
	URL         string
	Image       string
	Language    string
	Provider    string
	ProviderURL string
	Instructors []string
	Mode        string // online, onsite, blended
}

// Course returns a schema.org Course payload.
func Course(in CourseInput) map[string]any {
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Course",
		"name":        in.Name,
		"description": in.Description,
	}
	if in.URL != "" {
		m["url"] = in.URL
	}
	if in.Image != "" {
		m["image"] = in.Image
	}
	if in.Language != "" {
		m["inLanguage"] = in.Language
	}
	if in.Provider != "" {
		provider := map[string]any{"@type": "Organization", "name": in.Provider}
		if in.ProviderURL != "" {
			provider["sameAs"] = in.ProviderURL
		}
		m["provider"] = provider
	}
	if len(in.Instructors) > 0 || in.Mode != "" {
		instance := map[string]any{"@type": "CourseInstance"}
		if in.Mode != "" {
			instance["courseMode"] = in.Mode
		}
		if len(in.Instructors) > 0 {
			people := make([]map[string]any, 0, len(in.Instructors))
			for _, name := range in.Instructors {
				people = append(people, map[string]any{"@type": "Person", "name": name})
			}
			instance["instructor"] = people
		}
		m["hasCourseInstance"] = []map[string]any{instance}
	}
	return m
}
