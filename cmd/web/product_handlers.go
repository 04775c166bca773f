package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/course-landing/internal/catalog"
	handlersPkg "finitefield.org/course-landing/internal/handlers"
	mw "finitefield.org/course-landing/internal/middleware"
	"finitefield.org/course-landing/internal/nav"
	"finitefield.org/course-landing/internal/observability"
	"finitefield.org/course-landing/internal/seo"
	"finitefield.org/course-landing/internal/viewstate"
)

// pageCtx is the product document plus the visitor's state for one request.
type pageCtx struct {
	product *catalog.Product
	page    *viewstate.Page
	key     viewstate.Key
	lang    string
}

func (a *app) pageKey(r *http.Request, slug, lang string) viewstate.Key {
	return viewstate.Key{Session: mw.GetSession(r).ID, Slug: slug, Lang: lang}
}

func productBasePath(slug string) string {
	return "/products/" + url.PathEscape(slug)
}

// fetch loads the product for the request language, logging section
// problems that were skipped during decode.
func (a *app) fetch(r *http.Request, slug, lang string) (*catalog.Product, error) {
	if slug == "" {
		return nil, catalog.ErrNotFound
	}
	p, err := a.source.GetProduct(r.Context(), slug, lang)
	if err != nil {
		return nil, err
	}
	logger := observability.FromContext(r.Context())
	for _, issue := range p.SectionIssues() {
		logger.Warn("section skipped",
			zap.String("slug", slug),
			zap.Int("index", issue.Index),
			zap.String("type", issue.Type),
			zap.Int("dropped", issue.Dropped),
			zap.Error(issue.Err),
		)
	}
	return p, nil
}

// loadPage resolves the product and the visitor's page state for a fragment
// request. On failure it has already written the error response.
func (a *app) loadPage(w http.ResponseWriter, r *http.Request) (*pageCtx, bool) {
	slug := catalog.SanitizeSlug(chi.URLParam(r, "slug"))
	lang := mw.Lang(r)
	p, err := a.fetch(r, slug, lang)
	if err != nil {
		status := a.logFetchError(r, slug, lang, err)
		mw.WriteError(w, r, status, http.StatusText(status))
		return nil, false
	}
	key := a.pageKey(r, slug, lang)
	return &pageCtx{product: p, page: a.store.Page(key), key: key, lang: lang}, true
}

func (a *app) logFetchError(r *http.Request, slug, lang string, err error) int {
	logger := observability.FromContext(r.Context())
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Info("product not found", zap.String("slug", slug), zap.String("lang", lang))
		return http.StatusNotFound
	}
	logger.Error("product fetch failed", zap.String("slug", slug), zap.String("lang", lang), zap.Error(err))
	return http.StatusBadGateway
}

func (a *app) view(pc *pageCtx) *productView {
	return buildProductView(&viewBuilder{
		product: pc.product,
		page:    pc.page,
		hosts:   a.hosts,
		lang:    pc.lang,
		base:    productBasePath(pc.key.Slug),
		t:       func(key string) string { return a.bundle.T(pc.lang, key) },
		poll:    a.cfg.ViewState.AutoplayInterval,
		toast:   a.cfg.ViewState.ToastDelay,
	})
}

// homeHandler renders the landing page of the default course.
func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	a.renderProduct(w, r, a.cfg.Site.DefaultSlug)
}

// productHandler renders the landing page for any slug.
func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	a.renderProduct(w, r, chi.URLParam(r, "slug"))
}

func (a *app) renderProduct(w http.ResponseWriter, r *http.Request, rawSlug string) {
	slug := catalog.SanitizeSlug(rawSlug)
	lang := mw.Lang(r)
	vm := a.basePageData(r, lang)

	p, err := a.fetch(r, slug, lang)
	if err != nil {
		status := a.logFetchError(r, slug, lang, err)
		a.renderError(w, r, vm, status)
		return
	}

	// reading only: state is created by the first fragment request
	key := a.pageKey(r, slug, lang)
	view := a.view(&pageCtx{product: p, page: a.store.View(key), key: key, lang: lang})

	vm.Product = view
	vm.Breadcrumbs = nav.ProductCrumbs(slug, view.TitleText)
	a.productSEO(r, &vm, p, view)
	a.render.page(w, r, http.StatusOK, vm)
}

func (a *app) basePageData(r *http.Request, lang string) handlersPkg.PageData {
	siteName := a.cfg.Site.Name
	if siteName == "" {
		siteName = a.bundle.T(lang, "brand.name")
	}
	vm := handlersPkg.PageData{
		Lang:      lang,
		SiteName:  siteName,
		Analytics: a.analytics,
		CSRFToken: mw.CSRFToken(r),
		Year:      a.now().Year(),
		Path:      r.URL.Path,
		Nav:       nav.Build(r.URL.Path),
		Footer:    nav.Footer,
		Contacts:  nav.Contacts,
	}
	for _, l := range a.bundle.Supported() {
		q := url.Values{"lang": {l}}
		vm.Languages = append(vm.Languages, handlersPkg.LanguageLink{
			Lang:     l,
			LabelKey: "lang." + l,
			Href:     r.URL.Path + "?" + q.Encode(),
			Active:   l == lang,
		})
	}
	return vm
}

func (a *app) renderError(w http.ResponseWriter, r *http.Request, vm handlersPkg.PageData, status int) {
	ev := &handlersPkg.ErrorView{
		Status:     status,
		TitleKey:   "error.unavailable.title",
		MessageKey: "error.unavailable.message",
		RequestID:  chimw.GetReqID(r.Context()),
	}
	if status == http.StatusNotFound {
		ev.TitleKey = "error.not_found.title"
		ev.MessageKey = "error.not_found.message"
	}
	vm.Error = ev
	vm.Title = a.bundle.T(vm.Lang, ev.TitleKey)
	vm.SEO.Title = vm.Title + " | " + vm.SiteName
	vm.SEO.Robots = "noindex"
	a.render.page(w, r, status, vm)
}

// notFoundHandler renders unknown paths with the shared layout.
func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	a.renderError(w, r, a.basePageData(r, lang), http.StatusNotFound)
}

func (a *app) productSEO(r *http.Request, vm *handlersPkg.PageData, p *catalog.Product, view *productView) {
	brand := vm.SiteName
	vm.Title = view.TitleText
	vm.SEO.Title = view.TitleText + " | " + brand
	vm.SEO.Description = view.Summary
	vm.SEO.Canonical = a.absoluteURL(r, r.URL.Path)
	vm.SEO.OG = seo.OpenGraph{
		Title:       vm.SEO.Title,
		Description: vm.SEO.Description,
		Type:        "website",
		URL:         vm.SEO.Canonical,
		SiteName:    brand,
		Locale:      seo.OGLocale(vm.Lang),
	}
	if thumb, ok := p.Thumbnail(); ok && a.hosts.allowed(thumb.ResourceValue) {
		vm.SEO.OG.Image = thumb.ResourceValue
	}
	vm.SEO.Twitter = seo.Twitter{Card: "summary_large_image", Image: vm.SEO.OG.Image}
	for _, l := range vm.Languages {
		vm.SEO.Alternates = append(vm.SEO.Alternates, seo.Alternate{
			Href:     a.absoluteURL(r, l.Href),
			Hreflang: l.Lang,
		})
	}

	var instructors []string
	if _, items, ok := p.Instructors(); ok {
		for _, it := range items {
			instructors = append(instructors, it.Name)
		}
	}
	course := seo.Course(seo.CourseInput{
		Name:        view.TitleText,
		Description: view.Summary,
		URL:         vm.SEO.Canonical,
		Image:       vm.SEO.OG.Image,
		Language:    vm.Lang,
		Provider:    brand,
		ProviderURL: a.cfg.Site.BaseURL,
		Instructors: instructors,
		Mode:        "online",
	})
	crumbs := make([]seo.BreadcrumbItem, 0, len(vm.Breadcrumbs))
	for _, c := range vm.Breadcrumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = a.bundle.T(vm.Lang, c.LabelKey)
		}
		crumbs = append(crumbs, seo.BreadcrumbItem{Name: name, Item: a.absoluteURL(r, c.Href)})
	}
	vm.SEO.JSONLD = []string{seo.JSON(course), seo.JSON(seo.BreadcrumbList(crumbs))}
}

// absoluteURL prefers the configured site URL and falls back to the request host.
func (a *app) absoluteURL(r *http.Request, path string) string {
	if a.cfg.Site.BaseURL != "" {
		return a.cfg.Site.BaseURL + path
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

// fragment rebuilds the view after a state change and renders one template.
func (a *app) fragment(w http.ResponseWriter, r *http.Request, pc *pageCtx, name string) {
	a.render.fragment(w, r, name, a.view(pc))
}

func (a *app) faqToggleHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if _, items, found := pc.product.FAQ(); found {
		pc.page.Toggle(stateFAQ, viewstate.Accordion, items.IDs()).Select(chi.URLParam(r, "id"))
	}
	a.fragment(w, r, pc, "frag_faq")
}

func (a *app) aboutSelectHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if _, items, found := pc.product.About(); found {
		pc.page.Toggle(stateAbout, viewstate.Tabs, items.IDs()).Select(chi.URLParam(r, "id"))
	}
	a.fragment(w, r, pc, "frag_about")
}

func (a *app) featureSelectHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if _, items, found := pc.product.FeatureExplanations(); found {
		pc.page.Toggle(stateFeatures, viewstate.Tabs, items.IDs()).Select(chi.URLParam(r, "id"))
	}
	a.fragment(w, r, pc, "frag_features")
}

func (a *app) paymentSelectHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if _, items, found := pc.product.HowToPay(); found {
		pc.page.Toggle(statePayments, viewstate.Tabs, items.IDs()).Select(chi.URLParam(r, "id"))
	}
	a.fragment(w, r, pc, "frag_payments")
}

// mediaFrag serves the autoplay poll of the media carousel.
func (a *app) mediaFrag(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	a.fragment(w, r, pc, "frag_media")
}

func (a *app) mediaOpHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	car := pc.page.Carousel(stateMedia, len(pc.product.GalleryMedia()), true)
	op := chi.URLParam(r, "op")
	switch op {
	case "next":
		car.Next()
	case "prev":
		car.Prev()
	case "play":
		car.Play()
	case "hover":
		car.Hover(true)
		w.WriteHeader(http.StatusNoContent)
		return
	case "leave":
		car.Hover(false)
	default:
		i, err := strconv.Atoi(op)
		if err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "unknown carousel operation")
			return
		}
		car.JumpTo(i)
	}
	a.fragment(w, r, pc, "frag_media")
}

func (a *app) testimonialsFrag(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	a.fragment(w, r, pc, "frag_testimonials")
}

func (a *app) testimonialOpHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	_, items, _ := pc.product.Testimonials()
	car := pc.page.Carousel(stateTestimonials, len(items), true)
	video := pc.page.Toggle(stateTestimonialV, viewstate.Accordion, items.IDs())
	switch op := chi.URLParam(r, "op"); op {
	case "next":
		car.Next()
		video.Reset()
	case "prev":
		car.Prev()
		video.Reset()
	case "hover":
		car.Hover(true)
		w.WriteHeader(http.StatusNoContent)
		return
	case "leave":
		car.Hover(false)
	default:
		i, err := strconv.Atoi(op)
		if err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "unknown carousel operation")
			return
		}
		if car.JumpTo(i) {
			video.Reset()
		}
	}
	a.fragment(w, r, pc, "frag_testimonials")
}

// testimonialPlayHandler brings a video testimonial to the front and plays it.
func (a *app) testimonialPlayHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	_, items, _ := pc.product.Testimonials()
	id := chi.URLParam(r, "id")
	car := pc.page.Carousel(stateTestimonials, len(items), true)
	video := pc.page.Toggle(stateTestimonialV, viewstate.Accordion, items.IDs())
	for i, it := range items {
		if it.ID.String() != id || !it.IsVideo() {
			continue
		}
		if car.Index() != i {
			car.JumpTo(i)
		}
		if !video.IsActive(id) {
			video.Select(id)
		}
		car.Play()
		break
	}
	a.fragment(w, r, pc, "frag_testimonials")
}

func (a *app) testimonialMoreHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	pc.page.Flags(stateReadMore).Flip(chi.URLParam(r, "id"))
	a.fragment(w, r, pc, "frag_testimonials")
}

// imageFailedHandler records a broken image and answers with its fallback.
func (a *app) imageFailedHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	// only keys the page actually renders are recorded
	if _, known := a.view(pc).images[key]; !known {
		mw.WriteError(w, r, http.StatusNotFound, "unknown image")
		return
	}
	pc.page.Fallback().Fail(key)
	a.render.fragment(w, r, "image", a.view(pc).images[key])
}

func (a *app) toastFrag(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	a.fragment(w, r, pc, "frag_toast")
}

// toastTriggerHandler shows the login reminder for gated content.
func (a *app) toastTriggerHandler(w http.ResponseWriter, r *http.Request) {
	pc, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	pc.page.Toast().Trigger(a.bundle.T(pc.lang, "toast.login"))
	if raw, err := json.Marshal(map[string]any{"toast:shown": map[string]string{"slug": pc.key.Slug}}); err == nil {
		w.Header().Set("HX-Trigger", string(raw))
	}
	a.fragment(w, r, pc, "frag_toast")
}

// leaveHandler tears down the visitor's page state when the tab goes away.
func (a *app) leaveHandler(w http.ResponseWriter, r *http.Request) {
	slug := catalog.SanitizeSlug(chi.URLParam(r, "slug"))
	a.store.Leave(a.pageKey(r, slug, mw.Lang(r)))
	w.WriteHeader(http.StatusNoContent)
}
