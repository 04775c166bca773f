package catalog

import (
	"encoding/json"
	"strings"
)

// Media resource names the landing page looks for.
const (
	MediaPreviewGallery = "preview_gallery"
	MediaThumbnail      = "thumbnail"

	ResourceVideo = "video"
	ResourceImage = "image"
)

// HeroChecklistLimit is how many checklist entries the hero shows.
const HeroChecklistLimit = 6

// Product is a course product document as returned by the discovery service.
// A Product is never mutated after decode; handlers share it freely.
type Product struct {
	ID             ID              `json:"id"`
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Platform       string          `json:"platform"`
	Type           string          `json:"type"`
	Modality       string          `json:"modality"`
	StartAt        string          `json:"start_at"`
	Media          []Media         `json:"media"`
	Checklist      []ChecklistItem `json:"checklist"`
	SEO            json.RawMessage `json:"seo,omitempty"`
	CTA            CTAText         `json:"cta_text"`
	Sections       []Section       `json:"sections"`
	IsCohortBased  bool            `json:"is_cohort_based_course"`
	DeliveryMethod string          `json:"delivery_method"`
}

// Media is one named resource attached to the product.
type Media struct {
	Name          string `json:"name"`
	ResourceType  string `json:"resource_type"`
	ResourceValue string `json:"resource_value"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
}

// ChecklistItem is one line of the "what you get" list.
type ChecklistItem struct {
	ID                 ID     `json:"id"`
	Icon               string `json:"icon"`
	Text               string `json:"text"`
	Color              string `json:"color,omitempty"`
	ListPageVisibility bool   `json:"list_page_visibility"`
}

// CTAText is the call-to-action button label.
type CTAText struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IsVideo reports whether the resource value is a video id.
func (m Media) IsVideo() bool { return m.ResourceType == ResourceVideo }

// EmbedURL returns the autoplaying YouTube embed for a video resource.
func (m Media) EmbedURL() string {
	if !m.IsVideo() || strings.TrimSpace(m.ResourceValue) == "" {
		return ""
	}
	return YouTubeEmbedURL(m.ResourceValue)
}

// PreviewURL is the image shown for the resource before it is played.
func (m Media) PreviewURL() string {
	if m.ThumbnailURL != "" {
		return m.ThumbnailURL
	}
	if m.IsVideo() {
		return ""
	}
	return m.ResourceValue
}

// YouTubeEmbedURL builds the embed URL for a YouTube video id.
func YouTubeEmbedURL(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + id + "?autoplay=1&rel=0"
}

// FindMedia returns the first media entry with the given name and resource type.
func (p *Product) FindMedia(name, resourceType string) (Media, bool) {
	if p == nil {
		return Media{}, false
	}
	for _, m := range p.Media {
		if m.Name == name && m.ResourceType == resourceType {
			return m, true
		}
	}
	return Media{}, false
}

// Trailer is the preview gallery video, if any.
func (p *Product) Trailer() (Media, bool) {
	return p.FindMedia(MediaPreviewGallery, ResourceVideo)
}

// Thumbnail is the course thumbnail image, if any.
func (p *Product) Thumbnail() (Media, bool) {
	return p.FindMedia(MediaThumbnail, ResourceImage)
}

// GalleryMedia lists the media shown in the trailer carousel, in source order.
func (p *Product) GalleryMedia() []Media {
	if p == nil {
		return nil
	}
	out := make([]Media, 0, len(p.Media))
	for _, m := range p.Media {
		if m.Name == MediaPreviewGallery {
			out = append(out, m)
		}
	}
	return out
}

// HeroChecklist returns the leading checklist entries shown in the hero.
func (p *Product) HeroChecklist() []ChecklistItem {
	if p == nil {
		return nil
	}
	if len(p.Checklist) <= HeroChecklistLimit {
		return p.Checklist
	}
	return p.Checklist[:HeroChecklistLimit]
}

// Section returns the first section of the given type. Later duplicates are ignored.
func (p *Product) Section(sectionType string) (Section, bool) {
	if p == nil {
		return Section{}, false
	}
	for _, s := range p.Sections {
		if s.Type == sectionType {
			return s, true
		}
	}
	return Section{}, false
}

// sectionValues returns the decoded values of the first section of type t when
// they have the expected variant.
func sectionValues[V Values](p *Product, t string) (Section, V, bool) {
	var zero V
	s, ok := p.Section(t)
	if !ok || s.Values == nil {
		return s, zero, false
	}
	v, ok := s.Values.(V)
	if !ok || v.Len() == 0 {
		return s, zero, false
	}
	return s, v, true
}

func (p *Product) Instructors() (Section, Instructors, bool) {
	return sectionValues[Instructors](p, TypeInstructors)
}

func (p *Product) Features() (Section, Features, bool) {
	return sectionValues[Features](p, TypeFeatures)
}

func (p *Product) Pointers() (Section, Pointers, bool) {
	return sectionValues[Pointers](p, TypePointers)
}

func (p *Product) About() (Section, About, bool) {
	return sectionValues[About](p, TypeAbout)
}

func (p *Product) Testimonials() (Section, Testimonials, bool) {
	return sectionValues[Testimonials](p, TypeTestimonials)
}

func (p *Product) FAQ() (Section, FAQ, bool) {
	return sectionValues[FAQ](p, TypeFAQ)
}

func (p *Product) FreeItems() (Section, FreeItems, bool) {
	return sectionValues[FreeItems](p, TypeFreeItems)
}

func (p *Product) Requirements() (Section, Requirements, bool) {
	return sectionValues[Requirements](p, TypeRequirements)
}

func (p *Product) HowToPay() (Section, HowToPay, bool) {
	return sectionValues[HowToPay](p, TypeHowToPay)
}

func (p *Product) FeatureExplanations() (Section, FeatureExplanations, bool) {
	return sectionValues[FeatureExplanations](p, TypeFeatureExplanations)
}

func (p *Product) ContentPreview() (Section, ContentPreview, bool) {
	return sectionValues[ContentPreview](p, TypeContentPreview)
}

func (p *Product) GroupJoin() (Section, GroupJoin, bool) {
	return sectionValues[GroupJoin](p, TypeGroupJoin)
}

// SectionIssues lists sections whose values could not be decoded or lost items
// to validation, for logging.
func (p *Product) SectionIssues() []SectionIssue {
	if p == nil {
		return nil
	}
	var out []SectionIssue
	for i, s := range p.Sections {
		if s.Err == nil && s.Dropped == 0 {
			continue
		}
		out = append(out, SectionIssue{Index: i, Type: s.Type, Err: s.Err, Dropped: s.Dropped})
	}
	return out
}

// SectionIssue describes a non-fatal decode problem in one section.
type SectionIssue struct {
	Index   int
	Type    string
	Err     error
	Dropped int
}
