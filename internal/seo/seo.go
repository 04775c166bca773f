package seo

// OpenGraph holds og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Alternate is an hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// Meta is everything the <head> needs for one page.
type Meta struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	JSONLD      []string
}

// ogLocales maps page languages to og:locale values.
var ogLocales = map[string]string{
	"en": "en_US",
	"bn": "bn_BD",
}

// OGLocale returns the og:locale for lang.
func OGLocale(lang string) string {
	if v, ok := ogLocales[lang]; ok {
		return v
	}
	return ogLocales["en"]
}
