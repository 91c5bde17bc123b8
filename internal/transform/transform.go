// Package transform turns raw venue events into display-ready models.
// Every rule is a pure function over uncontrolled upstream text: a pattern
// that does not match leaves the value as it was instead of failing.
package transform

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/derickschaefer/encore/internal/model"
)

// AgeLimitKey is the message key for the localised age-limit string.
// It doubles as the fallback text for locales without a translation.
const AgeLimitKey = "Must be at least %d years old"

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	titleContent     = regexp.MustCompile(`(?s)[\p{L}\p{N}"'(].*[\p{L}\p{N}"')!?.]|[\p{L}\p{N}]`)
	admissionPattern = regexp.MustCompile(`\d{1,3} kr`)
	agePattern       = regexp.MustCompile(`\d{1,2}`)
	openPattern      = regexp.MustCompile(`\d{1,2}[.:]\d{1,2}`)
	hourPattern      = regexp.MustCompile(`\d{1,2}`)
)

// freeMarkers are lower-case substrings that mark an admission as free.
var freeMarkers = []string{"fri entré", "fritt inträde", "gratis", "free"}

// entityReplacer decodes the handful of HTML entities the venue feed uses.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&gt;", ">",
	"&nbsp;", " ",
	"&quot;", `"`,
)

// Builder converts events into models using a locale-specific printer.
type Builder struct {
	printer *message.Printer
}

// NewBuilder returns a Builder that localises text for tag.
// Unknown locales fall back to English.
func NewBuilder(tag language.Tag) *Builder {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	_ = cat.SetString(language.Swedish, AgeLimitKey, "%d år")
	_ = cat.SetString(language.English, AgeLimitKey, AgeLimitKey)
	return &Builder{printer: message.NewPrinter(tag, message.Catalog(cat))}
}

// Build derives the display model for a single event.
func (b *Builder) Build(ev model.Event) model.EventModel {
	admission, free := Admission(ev.Admission)
	m := model.EventModel{
		ID:              ev.ID,
		Title:           Title(ev.Name),
		SubHeader:       CleanText(ev.SubHeader),
		Status:          ev.Status,
		Description:     CleanText(ev.Description),
		AgeLimit:        b.AgeLimit(ev.AgeLimit),
		Image:           ev.Image,
		Date:            ev.Date,
		Open:            Open(ev.Open),
		Room:            ev.Room,
		Venue:           ev.Venue,
		Admission:       admission,
		IsFreeAdmission: free,
		IsCancelled:     slugContains(ev.Slug, "cancelled"),
		IsPostponed:     slugContains(ev.Slug, "postponed"),
	}
	if ev.Slug != nil {
		m.Slug = *ev.Slug
	}
	if ev.TicketURL != nil {
		m.TicketURL = *ev.TicketURL
	}
	return m
}

// BuildAll maps Build over events, preserving order.
func (b *Builder) BuildAll(events []model.Event) []model.EventModel {
	out := make([]model.EventModel, len(events))
	for i, ev := range events {
		out[i] = b.Build(ev)
	}
	return out
}

// AgeLimit extracts the first one- or two-digit number and formats it as a
// localised minimum age. Without digits the lower-cased input is returned.
func (b *Builder) AgeLimit(raw string) string {
	lower := strings.ToLower(raw)
	digits, ok := find(agePattern, lower)
	if !ok {
		return lower
	}
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	return b.printer.Sprintf(AgeLimitKey, n)
}

// ─── Field rules ──────────────────────────────────────────────────────────────

// CleanText decodes entities, strips markup and trims surrounding whitespace.
func CleanText(s string) string {
	s = entityReplacer.Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Title cleans s and then keeps only the span between the first and last
// meaningful character, dropping leading and trailing punctuation noise.
func Title(s string) string {
	cleaned := CleanText(s)
	return findOr(titleContent, cleaned, cleaned)
}

// Admission lower-cases raw and extracts an "NNN kr" price. When there is no
// price it reports whether the text marks free admission; the lower-cased
// text is returned unchanged in that case.
func Admission(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	if price, ok := find(admissionPattern, lower); ok {
		return price, false
	}
	for _, marker := range freeMarkers {
		if strings.Contains(lower, marker) {
			return lower, true
		}
	}
	return lower, false
}

// Open normalises door times to HH:MM. "18.30" becomes "18:30" and a bare
// hour such as "Inne 19-01" becomes "19:00".
func Open(raw string) string {
	if hm, ok := find(openPattern, raw); ok {
		return strings.Replace(hm, ".", ":", 1)
	}
	if h, ok := find(hourPattern, raw); ok {
		return h + ":00"
	}
	return raw
}

func slugContains(slug *string, marker string) bool {
	return slug != nil && strings.Contains(*slug, marker)
}

// ─── match-or-original helpers ────────────────────────────────────────────────

// find returns the leftmost match of re in s.
func find(re *regexp.Regexp, s string) (string, bool) {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[0]:loc[1]], true
}

// findOr returns the leftmost match of re in s, or fallback when none.
func findOr(re *regexp.Regexp, s, fallback string) string {
	if m, ok := find(re, s); ok {
		return m
	}
	return fallback
}
