package main

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finitefield.org/course-landing/internal/catalog"
	"finitefield.org/course-landing/internal/format"
	"finitefield.org/course-landing/internal/sanitize"
	"finitefield.org/course-landing/internal/viewstate"
)

// View state component names inside a viewstate.Page.
const (
	stateFAQ          = "faq"
	stateAbout        = "about"
	stateFeatures     = "features"
	statePayments     = "payments"
	stateMedia        = "media"
	stateTestimonials = "testimonials"
	stateTestimonialV = "testimonial-video"
	stateReadMore     = "testimonial-more"
)

// Placeholder images served from public/assets.
const (
	placeholderVideo      = "/assets/img/placeholder-video.svg"
	placeholderImage      = "/assets/img/placeholder-image.svg"
	placeholderInstructor = "/assets/img/placeholder-instructor.svg"
)

// fallbackKind says what replaces an image that failed to load.
type fallbackKind string

const (
	fallbackHide        fallbackKind = "hide"
	fallbackPlaceholder fallbackKind = "placeholder"
	fallbackGlyph       fallbackKind = "glyph"
	fallbackBox         fallbackKind = "box"
)

type imageView struct {
	Lang        string
	Key         string
	Src         string
	Alt         string
	Failed      bool
	Fallback    fallbackKind
	Placeholder string
	Glyph       string
	BoxKey      string
	FailURL     string
}

// Visible is true when the <img> itself should be rendered.
func (v imageView) Visible() bool { return !v.Failed && v.Src != "" }

type checklistView struct {
	ID   string
	Text string
	Icon imageView
}

type mediaSlide struct {
	Index   int
	IsVideo bool
	Embed   string
	Preview imageView
	Active  bool
}

type mediaView struct {
	Slides   []mediaSlide
	Current  *mediaSlide
	Playing  bool
	Hovered  bool
	Position string
	Poll     bool
	PollMS   int64
	Hero     imageView
}

type instructorView struct {
	Name        string
	Description template.HTML
	Image       imageView
}

type featureView struct {
	ID       string
	Title    string
	Subtitle string
	Icon     imageView
}

type pointerView struct {
	ID   string
	Text string
}

type tabView struct {
	ID          string
	Title       template.HTML
	TitleText   string
	Description template.HTML
	Checklist   []string
	Image       imageView
	Active      bool
}

type testimonialView struct {
	ID         string
	Index      int
	Name       string
	Meta       string
	Score      string
	Text       string
	Short      string
	ShowText   bool
	Clamp      bool
	Expanded   bool
	IsVideo    bool
	Playing    bool
	Embed      string
	Cover      imageView
	Avatar     imageView
	Active     bool
	MoreURL    string
	PlayURL    string
}

type testimonialsView struct {
	Name     string
	Items    []testimonialView
	Index    int
	Position string
	Poll     bool
	PollMS   int64
}

type faqItemView struct {
	ID       string
	Question string
	Answer   template.HTML
	Open     bool
}

type listItemView struct {
	ID     string
	Title  string
	Icon   imageView
	Locked bool
	Video  bool
}

type paymentView struct {
	ID     string
	Name   string
	Icon   imageView
	Video  bool
	Active bool
}

type engagementView struct {
	Title       string
	Description template.HTML
	CTA         string
	Icon        imageView
	Thumbnail   imageView
	Background  string
	Primary     string
	Secondary   string
	ButtonColor string
}

type section[T any] struct {
	Name  string
	Items []T
}

type toastView struct {
	Visible bool
	Message string
	DelayMS int64
}

// productView is everything the product templates read. It is rebuilt for
// every full page and every fragment from the immutable product document
// plus the visitor's page state.
type productView struct {
	Slug     string
	Lang     string
	BasePath string

	Title       template.HTML
	TitleText   string
	Description template.HTML
	Summary     string
	CTA         string

	HeroChecklist []checklistView
	Checklist     []checklistView
	Media         mediaView
	TrailerEmbed  string
	TrailerThumb  imageView

	Instructors         *section[instructorView]
	Features            *section[featureView]
	Pointers            *section[pointerView]
	About               *section[tabView]
	FeatureExplanations *section[tabView]
	Testimonials        *testimonialsView
	FAQ                 *section[faqItemView]
	FreeItems           *section[listItemView]
	Requirements        *section[listItemView]
	HowToPay            *section[paymentView]
	ContentPreview      *section[listItemView]
	GroupJoin           *section[engagementView]

	Toast toastView

	images map[string]imageView
}

// HasSections reports whether anything below the hero renders.
func (v *productView) HasSections() bool {
	return v.Instructors != nil || v.Features != nil || v.Pointers != nil || v.About != nil ||
		v.FeatureExplanations != nil || v.Testimonials != nil || v.FAQ != nil || v.FreeItems != nil ||
		v.Requirements != nil || v.HowToPay != nil || v.ContentPreview != nil || v.GroupJoin != nil
}

// imageHosts is the allow-list of remote image hosts. Images elsewhere are
// treated as failed before the browser ever tries them.
type imageHosts map[string]struct{}

func newImageHosts(hosts []string) imageHosts {
	out := imageHosts{}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			out[h] = struct{}{}
		}
	}
	return out
}

func (h imageHosts) allowed(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}
	_, ok := h[strings.ToLower(u.Hostname())]
	return ok
}

type viewBuilder struct {
	product *catalog.Product
	page    *viewstate.Page
	hosts   imageHosts
	lang    string
	base    string
	t       func(key string) string
	poll    time.Duration
	toast   time.Duration
	images  map[string]imageView
}

func (b *viewBuilder) image(key, src, alt string, kind fallbackKind) imageView {
	v := imageView{
		Lang:     b.lang,
		Key:      key,
		Src:      strings.TrimSpace(src),
		Alt:      alt,
		Fallback: kind,
		FailURL:  b.base + "/images/" + url.PathEscape(key) + "/failed",
	}
	fb := b.page.Fallback()
	if !b.hosts.allowed(v.Src) {
		fb.Fail(key)
	}
	v.Failed = fb.Failed(key)
	if v.Failed {
		v.Src = ""
	}
	b.images[key] = v
	return v
}

func (b *viewBuilder) placeholder(key, src, alt, placeholder string) imageView {
	v := b.image(key, src, alt, fallbackPlaceholder)
	v.Placeholder = placeholder
	b.images[key] = v
	return v
}

func (b *viewBuilder) glyph(key, src, alt, glyph string) imageView {
	v := b.image(key, src, alt, fallbackGlyph)
	v.Glyph = glyph
	b.images[key] = v
	return v
}

func (b *viewBuilder) box(key, src, alt, boxKey string) imageView {
	v := b.image(key, src, alt, fallbackBox)
	v.BoxKey = boxKey
	b.images[key] = v
	return v
}

// buildProductView renders the document and the visitor's state into a view model.
func buildProductView(b *viewBuilder) *productView {
	p := b.product
	if b.images == nil {
		b.images = map[string]imageView{}
	}
	v := &productView{
		Slug:        p.Slug,
		Lang:        b.lang,
		BasePath:    b.base,
		Title:       sanitize.HTML(p.Title),
		TitleText:   sanitize.Text(p.Title),
		Description: sanitize.HTML(p.Description),
		Summary:     sanitize.Truncate(sanitize.Text(p.Description), 160),
		CTA:         strings.TrimSpace(p.CTA.Name),
	}
	if v.CTA == "" {
		v.CTA = b.t("cta.enroll")
	}

	for i, item := range p.Checklist {
		cv := checklistView{
			ID:   item.ID.String(),
			Text: item.Text,
			Icon: b.image("checklist-"+strconv.Itoa(i), item.Icon, "", fallbackHide),
		}
		v.Checklist = append(v.Checklist, cv)
	}
	// the hero repeats the leading entries, sharing their image keys
	v.HeroChecklist = v.Checklist[:len(p.HeroChecklist())]

	v.Media = b.media()
	if trailer, ok := p.Trailer(); ok {
		v.TrailerEmbed = strings.TrimSuffix(trailer.EmbedURL(), "?autoplay=1&rel=0") + "?rel=0"
	}
	thumbSrc := ""
	if thumb, ok := p.Thumbnail(); ok {
		thumbSrc = thumb.ResourceValue
	}
	v.TrailerThumb = b.box("sidebar-thumbnail", thumbSrc, v.TitleText, "hero.thumbnail_unavailable")

	if s, items, ok := p.Instructors(); ok {
		out := &section[instructorView]{Name: headingOr(s.Name, b.t("instructors.title"))}
		for i, it := range items {
			out.Items = append(out.Items, instructorView{
				Name:        it.Name,
				Description: sanitize.HTML(it.Description),
				Image:       b.placeholder("instructor-"+strconv.Itoa(i), it.Image, it.Name, placeholderInstructor),
			})
		}
		v.Instructors = out
	}

	if s, items, ok := p.Features(); ok {
		out := &section[featureView]{Name: headingOr(s.Name, b.t("features.title"))}
		for i, it := range items {
			out.Items = append(out.Items, featureView{
				ID:       it.ID.String(),
				Title:    it.Title,
				Subtitle: it.Subtitle,
				Icon:     b.image("feature-"+strconv.Itoa(i), it.Icon, "", fallbackHide),
			})
		}
		v.Features = out
	}

	if s, items, ok := p.Pointers(); ok {
		out := &section[pointerView]{Name: headingOr(s.Name, b.t("pointers.title"))}
		for _, it := range items {
			out.Items = append(out.Items, pointerView{ID: it.ID.String(), Text: it.Text})
		}
		v.Pointers = out
	}

	if s, items, ok := p.About(); ok {
		tabs := b.page.Toggle(stateAbout, viewstate.Tabs, items.IDs())
		out := &section[tabView]{Name: headingOr(s.Name, b.t("about.title"))}
		for _, it := range items {
			id := it.ID.String()
			out.Items = append(out.Items, tabView{
				ID:          id,
				Title:       sanitize.HTML(it.Title),
				TitleText:   sanitize.Text(it.Title),
				Description: sanitize.HTML(it.Description),
				Active:      tabs.IsActive(id),
			})
		}
		v.About = out
	}

	if s, items, ok := p.FeatureExplanations(); ok {
		tabs := b.page.Toggle(stateFeatures, viewstate.Tabs, items.IDs())
		out := &section[tabView]{Name: headingOr(s.Name, b.t("feature_explanations.title"))}
		for i, it := range items {
			id := it.ID.String()
			out.Items = append(out.Items, tabView{
				ID:        id,
				Title:     sanitize.HTML(it.Title),
				TitleText: sanitize.Text(it.Title),
				Checklist: it.Checklist,
				Image:     b.placeholder("feature-explanation-"+strconv.Itoa(i), it.FileURL, sanitize.Text(it.Title), placeholderImage),
				Active:    tabs.IsActive(id),
			})
		}
		v.FeatureExplanations = out
	}

	v.Testimonials = b.testimonials()

	if s, items, ok := p.FAQ(); ok {
		acc := b.page.Toggle(stateFAQ, viewstate.Accordion, items.IDs())
		out := &section[faqItemView]{Name: headingOr(s.Name, b.t("faq.title"))}
		for _, it := range items {
			id := it.ID.String()
			out.Items = append(out.Items, faqItemView{
				ID:       id,
				Question: sanitize.Text(it.Question),
				Answer:   sanitize.HTML(it.Answer),
				Open:     acc.IsActive(id),
			})
		}
		v.FAQ = out
	}

	if s, items, ok := p.FreeItems(); ok {
		out := &section[listItemView]{Name: headingOr(s.Name, b.t("free_items.title"))}
		for i, it := range items {
			out.Items = append(out.Items, listItemView{
				ID:    it.ID.String(),
				Title: it.Title,
				Icon:  b.image("free-item-"+strconv.Itoa(i), it.Icon, "", fallbackHide),
			})
		}
		v.FreeItems = out
	}

	if s, items, ok := p.Requirements(); ok {
		out := &section[listItemView]{Name: headingOr(s.Name, b.t("requirements.title"))}
		for i, it := range items {
			out.Items = append(out.Items, listItemView{
				ID:    it.ID.String(),
				Title: it.Title,
				Icon:  b.image("requirement-"+strconv.Itoa(i), it.Icon, "", fallbackHide),
			})
		}
		v.Requirements = out
	}

	if s, items, ok := p.HowToPay(); ok {
		tabs := b.page.Toggle(statePayments, viewstate.Tabs, items.IDs())
		out := &section[paymentView]{Name: headingOr(s.Name, b.t("how_to_pay.title"))}
		for i, it := range items {
			id := it.ID.String()
			out.Items = append(out.Items, paymentView{
				ID:     id,
				Name:   it.Name,
				Icon:   b.image("payment-"+strconv.Itoa(i), it.Icon, it.Name, fallbackHide),
				Video:  strings.TrimSpace(it.VideoURL) != "",
				Active: tabs.IsActive(id),
			})
		}
		v.HowToPay = out
	}

	if s, items, ok := p.ContentPreview(); ok {
		out := &section[listItemView]{Name: headingOr(s.Name, b.t("content_preview.title"))}
		for i, it := range items {
			out.Items = append(out.Items, listItemView{
				ID:     it.ID.String(),
				Title:  it.Title,
				Icon:   b.image("preview-"+strconv.Itoa(i), it.Icon, "", fallbackHide),
				Locked: it.IsLocked,
				Video:  it.IsVideo(),
			})
		}
		v.ContentPreview = out
	}

	if s, items, ok := p.GroupJoin(); ok {
		out := &section[engagementView]{Name: s.Name}
		for i, it := range items {
			cta := strings.TrimSpace(it.CTA.Text)
			if cta == "" {
				cta = b.t("group_join.cta")
			}
			out.Items = append(out.Items, engagementView{
				Title:       sanitize.Text(it.Title),
				Description: sanitize.HTML(it.Description),
				CTA:         cta,
				Icon:        b.image("group-join-icon-"+strconv.Itoa(i), it.TopLeftIconImg, "", fallbackHide),
				Thumbnail:   b.image("group-join-"+strconv.Itoa(i), it.Thumbnail, "", fallbackHide),
				Background:  b.cssURL(it.Background.Image),
				Primary:     cssColor(it.Background.PrimaryColor),
				Secondary:   cssColor(it.Background.SecondaryColor),
				ButtonColor: cssColor(it.CTA.Color),
			})
		}
		v.GroupJoin = out
	}

	visible, msg := b.page.Toast().Visible()
	v.Toast = toastView{Visible: visible, Message: msg, DelayMS: b.toast.Milliseconds()}

	v.images = b.images
	return v
}

func (b *viewBuilder) media() mediaView {
	p := b.product
	gallery := p.GalleryMedia()
	thumbSrc := ""
	if thumb, ok := p.Thumbnail(); ok {
		thumbSrc = thumb.ResourceValue
	}
	mv := mediaView{
		Hero: b.box("hero-thumbnail", thumbSrc, sanitize.Text(p.Title), "hero.thumbnail_unavailable"),
	}
	if len(gallery) == 0 {
		return mv
	}

	car := b.page.Carousel(stateMedia, len(gallery), true)
	idx := car.Index()
	for i, m := range gallery {
		alt := b.t("media.course_media")
		placeholder := placeholderImage
		if m.IsVideo() {
			alt = b.t("media.video_thumbnail")
			placeholder = placeholderVideo
		}
		preview := m.PreviewURL()
		if preview == "" && m.IsVideo() && i == 0 {
			preview = thumbSrc
		}
		slide := mediaSlide{
			Index:   i,
			IsVideo: m.IsVideo(),
			Embed:   m.EmbedURL(),
			Preview: b.placeholder("media-"+strconv.Itoa(i), preview, alt, placeholder),
			Active:  i == idx,
		}
		mv.Slides = append(mv.Slides, slide)
	}
	mv.Current = &mv.Slides[idx]
	mv.Playing = car.Playing()
	mv.Position = format.Position(idx, len(gallery), b.lang)
	mv.Poll = car.Autoplaying()
	mv.PollMS = b.poll.Milliseconds()
	return mv
}

func (b *viewBuilder) testimonials() *testimonialsView {
	s, items, ok := b.product.Testimonials()
	if !ok {
		return nil
	}
	car := b.page.Carousel(stateTestimonials, len(items), true)
	playing := b.page.Toggle(stateTestimonialV, viewstate.Accordion, items.IDs())
	more := b.page.Flags(stateReadMore)
	idx := car.Index()

	out := &testimonialsView{
		Name:     headingOr(s.Name, b.t("testimonials.title")),
		Index:    idx,
		Position: format.Position(idx, len(items), b.lang),
		Poll:     car.Autoplaying(),
		PollMS:   b.poll.Milliseconds(),
	}
	for i, it := range items {
		id := it.ID.String()
		tv := testimonialView{
			ID:       id,
			Index:    i,
			Name:     it.Name,
			Meta:     it.Description,
			Score:    it.Score(),
			Text:     it.Testimonial,
			Short:    sanitize.Truncate(it.Testimonial, catalog.ReadMoreThreshold),
			ShowText: !it.IsVideo() && it.Testimonial != it.Description,
			Clamp:    it.NeedsReadMore(),
			Expanded: more.On(id),
			IsVideo:  it.IsVideo(),
			Playing:  it.IsVideo() && playing.IsActive(id),
			Embed:    it.EmbedURL(),
			Active:   i == idx,
			MoreURL:  b.base + "/testimonials/more/" + url.PathEscape(id),
			PlayURL:  b.base + "/testimonials/play/" + url.PathEscape(id),
		}
		if tv.IsVideo {
			tv.Cover = b.box("testimonial-cover-"+id, it.Image(), it.Name, "testimonials.video")
		}
		tv.Avatar = b.glyph("testimonial-avatar-"+id, it.ProfileImage, it.Name, it.Initial())
		out.Items = append(out.Items, tv)
	}
	return out
}

// cssURL returns a url(...) value for an allowed image, or "".
func (b *viewBuilder) cssURL(raw string) string {
	if !b.hosts.allowed(raw) {
		return ""
	}
	return "url('" + strings.ReplaceAll(raw, "'", "%27") + "')"
}

// cssColor accepts hex colors only; anything else is dropped.
func cssColor(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 || len(raw) > 9 || raw[0] != '#' {
		return ""
	}
	for _, r := range raw[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}
	return raw
}

func headingOr(name, fallback string) string {
	if name = strings.TrimSpace(sanitize.Text(name)); name != "" {
		return name
	}
	return fallback
}
