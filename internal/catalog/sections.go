package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Section types rendered by the landing page.
const (
	TypeInstructors         = "instructors"
	TypeFeatures            = "features"
	TypePointers            = "pointers"
	TypeAbout               = "about"
	TypeTestimonials        = "testimonials"
	TypeFAQ                 = "faq"
	TypeFreeItems           = "free_items"
	TypeRequirements        = "requirements"
	TypeHowToPay            = "how_to_pay"
	TypeFeatureExplanations = "feature_explanations"
	TypeContentPreview      = "content_preview"
	TypeGroupJoin           = "group_join_engagement"
)

var validate = validator.New()

// ID accepts both string and numeric identifiers; the discovery service is not
// consistent between section types.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog: id must be string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Section is one typed block of the product document. Values holds exactly one
// variant; Unknown is used for types the page does not render.
type Section struct {
	Type        string
	Name        string
	Description string
	BgColor     string
	OrderIdx    int
	Values      Values
	// Err is set when values could not be decoded. The section then renders nothing.
	Err error
	// Dropped counts items removed because they failed validation.
	Dropped int
}

// Values is the closed set of section payload variants.
type Values interface {
	Len() int
	sectionValues()
}

type sectionHeader struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BgColor     string          `json:"bg_color"`
	OrderIdx    json.Number     `json:"order_idx"`
	Values      json.RawMessage `json:"values"`
}

// UnmarshalJSON never fails: a malformed section is kept with Err set so one
// bad section cannot take the whole page down.
func (s *Section) UnmarshalJSON(data []byte) error {
	var hdr sectionHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		*s = Section{
			Type:   peekType(data),
			Values: Unknown{Raw: append(json.RawMessage(nil), data...)},
			Err:    fmt.Errorf("catalog: decode section header: %w", err),
		}
		return nil
	}
	order, _ := hdr.OrderIdx.Int64()
	*s = Section{
		Type:        hdr.Type,
		Name:        hdr.Name,
		Description: hdr.Description,
		BgColor:     hdr.BgColor,
		OrderIdx:    int(order),
	}
	values, dropped, err := decodeValues(hdr.Type, hdr.Values)
	if err != nil {
		s.Err = fmt.Errorf("catalog: decode %s values: %w", hdr.Type, err)
	}
	s.Values = values
	s.Dropped = dropped
	return nil
}

func peekType(data []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	var t string
	_ = json.Unmarshal(probe["type"], &t)
	return t
}

func decodeValues(sectionType string, raw json.RawMessage) (Values, int, error) {
	switch sectionType {
	case TypeInstructors:
		items, dropped, err := decodeList[Instructor](raw)
		return Instructors(items), dropped, err
	case TypeFeatures:
		items, dropped, err := decodeList[Feature](raw)
		return Features(items), dropped, err
	case TypePointers:
		items, dropped, err := decodeList[Pointer](raw)
		return Pointers(items), dropped, err
	case TypeAbout:
		items, dropped, err := decodeList[AboutItem](raw)
		return About(items), dropped, err
	case TypeTestimonials:
		items, dropped, err := decodeList[Testimonial](raw)
		return Testimonials(items), dropped, err
	case TypeFAQ:
		items, dropped, err := decodeList[FAQItem](raw)
		return FAQ(items), dropped, err
	case TypeFreeItems:
		items, dropped, err := decodeList[FreeItem](raw)
		return FreeItems(items), dropped, err
	case TypeRequirements:
		items, dropped, err := decodeList[Requirement](raw)
		return Requirements(items), dropped, err
	case TypeHowToPay:
		items, dropped, err := decodeList[PaymentMethod](raw)
		return HowToPay(items), dropped, err
	case TypeFeatureExplanations:
		items, dropped, err := decodeList[FeatureExplanation](raw)
		return FeatureExplanations(items), dropped, err
	case TypeContentPreview:
		items, dropped, err := decodeList[PreviewItem](raw)
		return ContentPreview(items), dropped, err
	case TypeGroupJoin:
		items, dropped, err := decodeList[Engagement](raw)
		return GroupJoin(items), dropped, err
	default:
		return Unknown{Raw: append(json.RawMessage(nil), raw...)}, 0, nil
	}
}

// decodeList decodes a JSON array of T, dropping items that fail validation.
func decodeList[T any](raw json.RawMessage) ([]T, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, 0, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, err
	}
	kept := items[:0]
	dropped := 0
	for _, item := range items {
		if err := validate.Struct(item); err != nil {
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	return kept, dropped, nil
}

// Instructor is one entry of the instructors section.
type Instructor struct {
	Name              string `json:"name" validate:"required"`
	Image             string `json:"image"`
	Description       string `json:"description"`
	ShortDescription  string `json:"short_description"`
	Slug              string `json:"slug"`
	HasInstructorPage bool   `json:"has_instructor_page"`
}

type Feature struct {
	ID       ID     `json:"id"`
	Icon     string `json:"icon"`
	Title    string `json:"title" validate:"required"`
	Subtitle string `json:"subtitle"`
}

type Pointer struct {
	ID    ID     `json:"id"`
	Text  string `json:"text" validate:"required"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// AboutItem carries HTML title and description.
type AboutItem struct {
	ID          ID     `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Testimonial struct {
	ID           ID     `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ProfileImage string `json:"profile_image"`
	Testimonial  string `json:"testimonial"`
	Description  string `json:"description"`
	Thumb        string `json:"thumb"`
	VideoURL     string `json:"video_url"`
	VideoType    string `json:"video_type"`
}

// FAQItem answers are HTML.
type FAQItem struct {
	ID       ID     `json:"id" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

type FreeItem struct {
	ID    ID     `json:"id"`
	Title string `json:"title" validate:"required"`
	Icon  string `json:"icon"`
}

type Requirement struct {
	ID    ID     `json:"id"`
	Title string `json:"title" validate:"required"`
	Icon  string `json:"icon"`
}

type PaymentMethod struct {
	ID       ID     `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Icon     string `json:"icon"`
	VideoURL string `json:"video_url"`
}

type FeatureExplanation struct {
	ID             ID       `json:"id" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Checklist      []string `json:"checklist"`
	FileURL        string   `json:"file_url"`
	FileType       string   `json:"file_type"`
	VideoThumbnail string   `json:"video_thumbnail"`
}

type PreviewItem struct {
	ID       ID     `json:"id"`
	Title    string `json:"title" validate:"required"`
	Icon     string `json:"icon"`
	IsLocked bool   `json:"is_locked"`
	Type     string `json:"type"`
}

// Engagement is the group-join / free download promo card.
type Engagement struct {
	ID             ID                   `json:"id"`
	Title          string               `json:"title" validate:"required"`
	Description    string               `json:"description"`
	Thumbnail      string               `json:"thumbnail"`
	TopLeftIconImg string               `json:"top_left_icon_img"`
	CTA            EngagementCTA        `json:"cta"`
	Background     EngagementBackground `json:"background"`
}

type EngagementCTA struct {
	Text       string `json:"text"`
	ClickedURL string `json:"clicked_url"`
	Color      string `json:"color"`
}

type EngagementBackground struct {
	Image          string `json:"image"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type (
	Instructors         []Instructor
	Features            []Feature
	Pointers            []Pointer
	About               []AboutItem
	Testimonials        []Testimonial
	FAQ                 []FAQItem
	FreeItems           []FreeItem
	Requirements        []Requirement
	HowToPay            []PaymentMethod
	FeatureExplanations []FeatureExplanation
	ContentPreview      []PreviewItem
	GroupJoin           []Engagement
)

// Unknown keeps the raw values of a section type the page does not render.
type Unknown struct {
	Raw json.RawMessage
}

func (v Instructors) Len() int         { return len(v) }
func (v Features) Len() int            { return len(v) }
func (v Pointers) Len() int            { return len(v) }
func (v About) Len() int               { return len(v) }
func (v Testimonials) Len() int        { return len(v) }
func (v FAQ) Len() int                 { return len(v) }
func (v FreeItems) Len() int           { return len(v) }
func (v Requirements) Len() int        { return len(v) }
func (v HowToPay) Len() int            { return len(v) }
func (v FeatureExplanations) Len() int { return len(v) }
func (v ContentPreview) Len() int      { return len(v) }
func (v GroupJoin) Len() int           { return len(v) }
func (v Unknown) Len() int             { return 0 }

func (Instructors) sectionValues()         {}
func (Features) sectionValues()            {}
func (Pointers) sectionValues()            {}
func (About) sectionValues()               {}
func (Testimonials) sectionValues()        {}
func (FAQ) sectionValues()                 {}
func (FreeItems) sectionValues()           {}
func (Requirements) sectionValues()        {}
func (HowToPay) sectionValues()            {}
func (FeatureExplanations) sectionValues() {}
func (ContentPreview) sectionValues()      {}
func (GroupJoin) sectionValues()           {}
func (Unknown) sectionValues()             {}

// IDs returns the item ids in order.
func (v About) IDs() []string {
	out := make([]string, 0, len(v))
	for _, it := range v {
		out = append(out, it.ID.String())
	}
	return out
}

func (v FAQ) IDs() []string {
	out := make([]string, 0, len(v))
	for _, it := range v {
		out = append(out, it.ID.String())
	}
	return out
}

func (v FeatureExplanations) IDs() []string {
	out := make([]string, 0, len(v))
	for _, it := range v {
		out = append(out, it.ID.String())
	}
	return out
}

func (v HowToPay) IDs() []string {
	out := make([]string, 0, len(v))
	for _, it := range v {
		out = append(out, it.ID.String())
	}
	return out
}

func (v Testimonials) IDs() []string {
	out := make([]string, 0, len(v))
	for _, it := range v {
		out = append(out, it.ID.String())
	}
	return out
}

// ReadMoreThreshold is the testimonial length above which the text is clamped.
const ReadMoreThreshold = 150

var scorePattern = regexp.MustCompile(`IELTS Score: ([\d.]+)`)

// IsVideo reports whether the testimonial plays a video instead of showing text.
func (t Testimonial) IsVideo() bool { return strings.TrimSpace(t.VideoURL) != "" }

// EmbedURL is the YouTube embed for video testimonials.
func (t Testimonial) EmbedURL() string {
	if !t.IsVideo() {
		return ""
	}
	return YouTubeEmbedURL(t.VideoURL)
}

// Image is the picture shown on the card: video thumb first, then avatar.
func (t Testimonial) Image() string {
	if t.Thumb != "" {
		return t.Thumb
	}
	return t.ProfileImage
}

// Score extracts "IELTS Score: x" from the description.
func (t Testimonial) Score() string {
	m := scorePattern.FindStringSubmatch(t.Description)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// NeedsReadMore reports whether the text is long enough to be clamped.
func (t Testimonial) NeedsReadMore() bool {
	return utf8.RuneCountInString(t.Testimonial) > ReadMoreThreshold
}

// Initial is the avatar fallback glyph.
func (t Testimonial) Initial() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

// IsVideo reports whether a preview item is a video lesson.
func (p PreviewItem) IsVideo() bool { return p.Type == ResourceVideo }
