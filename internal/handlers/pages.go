package handlers

import (
	"finitefield.org/course-landing/internal/nav"
	"finitefield.org/course-landing/internal/seo"
)

// PageData is the view model for every full page using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SiteName  string
	SEO       seo.Meta
	Analytics Analytics
	CSRFToken string
	Year      int

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Footer      []nav.Group
	Contacts    []nav.Contact
	Languages   []LanguageLink

	// Exactly one of these is set.
	Product any
	Error   *ErrorView
}

// LanguageLink is one entry of the language switcher.
type LanguageLink struct {
	Lang     string
	LabelKey string
	Href     string
	Active   bool
}

// ErrorView describes a failed page render.
type ErrorView struct {
	Status     int
	TitleKey   string
	MessageKey string
	RequestID  string
}
