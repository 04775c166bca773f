package nav

import "strings"

// Item represents a navigation link. Labels are i18n keys.
type Item struct {
	Path     string
	LabelKey string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Group is a titled column of footer links.
type Group struct {
	TitleKey string
	Items    []Item
}

// Contact is one line of the footer contact column.
type Contact struct {
	Kind     string // phone, whatsapp, abroad, email
	LabelKey string
	Value    string
	Href     string
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the header navigation.
var Main = []Item{
	{Path: "/classes", LabelKey: "nav.classes"},
	{Path: "/skills", LabelKey: "nav.skills"},
	{Path: "/admission", LabelKey: "nav.admission"},
	{Path: "/online-batch", LabelKey: "nav.online_batch"},
	{Path: "/english-centre", LabelKey: "nav.english_center"},
}

// Footer holds the link columns shown in the page footer.
var Footer = []Group{
	{TitleKey: "footer.company", Items: []Item{
		{Path: "/career", LabelKey: "footer.career"},
		{Path: "/teacher", LabelKey: "footer.join_teacher"},
		{Path: "/affiliate", LabelKey: "footer.join_affiliate"},
		{Path: "/privacy-policy", LabelKey: "footer.privacy"},
		{Path: "/refund-policy", LabelKey: "footer.refund"},
		{Path: "/terms-and-conditions", LabelKey: "footer.terms"},
	}},
	{TitleKey: "footer.others", Items: []Item{
		{Path: "/blog", LabelKey: "footer.blog"},
		{Path: "/store", LabelKey: "footer.book_store"},
		{Path: "/content", LabelKey: "footer.free_notes"},
		{Path: "/job-preparation", LabelKey: "footer.job_prep"},
		{Path: "/certificate", LabelKey: "footer.verify_certificate"},
		{Path: "/downloads", LabelKey: "footer.free_downloads"},
	}},
}

// Hotline is the support number shown under the FAQ and in the footer.
const Hotline = "16910"

// Contacts lists the footer contact column.
var Contacts = []Contact{
	{Kind: "phone", LabelKey: "footer.call", Value: Hotline + " (24x7)", Href: "tel:" + Hotline},
	{Kind: "whatsapp", LabelKey: "footer.whatsapp", Value: "+8801896016252 (24x7)", Href: "https://wa.me/8801896016252"},
	{Kind: "abroad", LabelKey: "footer.abroad", Value: "+880 9610916910", Href: "tel:+8809610916910"},
	{Kind: "email", LabelKey: "footer.email", Value: "support@10minuteschool.com", Href: "mailto:support@10minuteschool.com"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/skills" or "/skills/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// ProductCrumbs builds Home > product title for a product page.
func ProductCrumbs(slug, title string) []Crumb {
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home"}}
	if slug == "" {
		crumbs[0].Active = true
		return crumbs
	}
	label := title
	if label == "" {
		label = titleFromSegment(slug)
	}
	return append(crumbs, Crumb{Href: "/products/" + slug, Label: label, Active: true})
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	words := strings.FieldsFunc(seg, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		if r[0] >= 'a' && r[0] <= 'z' {
			r[0] -= 'a' - 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
