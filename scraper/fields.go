package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"immosearch/models"
)

// candidate is the per-card view shared by every field rule.
type candidate struct {
	sel    *goquery.Selection
	text   string   // text with line breaks at block boundaries
	lines  []string // trimmed, whitespace-collapsed, non-empty lines
	folded string
}

func newCandidate(sel *goquery.Selection) *candidate {
	text := blockText(sel)
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = CollapseSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return &candidate{
		sel:    sel,
		text:   text,
		lines:  lines,
		folded: Fold(text),
	}
}

// rule is one step of a field cascade.
type rule struct {
	selector string
	re       *regexp.Regexp
	min, max int
	apply    func(c *candidate, r rule) string
}

// firstText returns the text of the first element matching selector.
func firstText(c *candidate, r rule) string {
	return CollapseSpace(c.sel.Find(r.selector).First().Text())
}

// labelledPrice returns the price-looking part of the first labelled
// element, or its whole text when no amount with currency is inside.
func labelledPrice(c *candidate, r rule) string {
	t := firstText(c, r)
	if m := r.re.FindString(t); m != "" {
		return CollapseSpace(m)
	}
	return t
}

// firstTextOf returns the first non-empty element text among selector
// matches, bounded by min runes.
func firstTextOf(c *candidate, r rule) string {
	var out string
	c.sel.Find(r.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := CollapseSpace(s.Text())
		if utf8.RuneCountInString(t) >= r.min {
			out = t
			return false
		}
		return true
	})
	return out
}

// match returns capture group 1 of re over the raw text, or the whole match
// when re has no group.
func match(c *candidate, r rule) string {
	m := r.re.FindStringSubmatch(c.text)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return CollapseSpace(m[1])
	}
	return CollapseSpace(m[0])
}

// matchFolded returns capture group 1 of re over the folded text.
func matchFolded(c *candidate, r rule) string {
	m := r.re.FindStringSubmatch(c.folded)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// firstLine returns the first line of r.min..r.max runes without a price.
func firstLine(c *candidate, r rule) string {
	for _, l := range c.lines {
		n := utf8.RuneCountInString(l)
		if n >= r.min && n <= r.max && !HasCurrency(l) {
			return l
		}
	}
	return ""
}

// longestLine returns the longest line of r.min..r.max runes.
func longestLine(c *candidate, r rule) string {
	best := ""
	for _, l := range c.lines {
		n := utf8.RuneCountInString(l)
		if n >= r.min && n <= r.max && n > utf8.RuneCountInString(best) {
			best = l
		}
	}
	return best
}

// prefix returns the first r.max runes of the collapsed text.
func prefix(c *candidate, r rule) string {
	return Truncate(CollapseSpace(c.text), r.max)
}

// attrOf returns the first non-empty attribute among names, skipping inline
// data URIs used as lazy-load placeholders.
func attrOf(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	return ""
}

// cascade runs rules in order and returns the first value accepted.
func cascade(c *candidate, rules []rule, accept func(string) bool) string {
	for _, r := range rules {
		v := r.apply(c, r)
		if v != "" && (accept == nil || accept(v)) {
			return v
		}
	}
	return ""
}

var pricePattern = regexp.MustCompile(`(?i)\b\d[\d .\x{00A0}\x{202F}]*\s*(?:(?:millions?|mille|thousand)\s*)?(?:XPF|F\s*CFP)`)

var (
	titleRules = []rule{
		{selector: `h1, h2, h3, h4, h5, .title, [class*="title"]`, min: 1, apply: firstTextOf},
		{selector: `a`, min: 5, apply: firstTextOf},
		{selector: `strong, b`, min: 5, apply: firstTextOf},
		{min: 10, max: 200, apply: firstLine},
		{max: 100, apply: prefix},
	}

	priceRules = []rule{
		{selector: `.price, [class*="prix"], [class*="price"]`, re: pricePattern, apply: labelledPrice},
		{re: pricePattern, apply: match},
	}

	locationRules = []rule{
		{selector: `.location, [class*="ville"], [class*="localisation"]`, apply: firstText},
		{re: regexp.MustCompile(`(?:à|À|Commune|Ville)[ \t]*:?[ \t]*([A-ZÉÈÊÀ][a-zéèêàâù]+(?:[ \t]+[A-ZÉÈÊÀ][a-zéèêàâù]+)?)`), apply: match},
	}

	descriptionRules = []rule{
		{selector: `.description, [class*="desc"], p`, min: 1, apply: firstTextOf},
		{min: 50, max: 500, apply: longestLine},
	}

	surfaceRules = []rule{
		{re: regexp.MustCompile(`(\d+)\s*m[²2]`), apply: matchFolded},
	}

	// F/T codes first: "120 m2 F4" has four rooms, not two.
	roomsRules = []rule{
		{re: regexp.MustCompile(`\b[ft](\d)\b`), apply: matchFolded},
		{re: regexp.MustCompile(`(\d+)\s*(?:pieces?|chambres?|p\b)`), apply: matchFolded},
	}
)

// keyword is one entry of a classification table, matched against folded
// text.
type keyword struct {
	re  *regexp.Regexp
	tag string
}

func words(tag string, alternatives ...string) keyword {
	return keyword{
		re:  regexp.MustCompile(`\b(?:` + strings.Join(alternatives, "|") + `)\b`),
		tag: tag,
	}
}

// featureVocabulary maps French and English wording to canonical tags.
var featureVocabulary = []keyword{
	words("garden", "jardins?", "garden"),
	words("terrace", "terrasses?", "terrace"),
	words("balcony", "balcons?", "balcony"),
	words("garage", "garages?"),
	words("parking", "parkings?"),
	words("pool", "piscines?", "pool"),
	words("furnished", "meublee?s?", "furnished"),
	words("aircon", "climatisee?s?", "climatisation", "clim", "air conditionne"),
	words("internet", "internet", "wifi", "wi-fi", "fibre"),
	words("seaview", "vue (?:sur )?(?:la )?mer", "sea view"),
}

// propertyTypes is in priority order; the first hit wins.
var propertyTypes = []keyword{
	words(models.PropertyApartment, "appartements?", "appart", "f2", "f3", "studios?"),
	words(models.PropertyVilla, "villas?"),
	words(models.PropertyLand, "terrains?", "parcelles?"),
	words(models.PropertyCommercial, "commerciale?s?", "commerces?", "bureaux?", "local", "locaux"),
}

var rentKeywords = words(models.TransactionRent, "location", "locations", "louer", "loue", "rent", "lease")

// classify returns the tag of the first keyword found in folded text.
func classify(folded string, table []keyword) string {
	for _, k := range table {
		if k.re.MatchString(folded) {
			return k.tag
		}
	}
	return ""
}

// features returns every vocabulary tag present in folded text, once each,
// in vocabulary order.
func features(folded string) []string {
	out := make([]string, 0, 4)
	for _, k := range featureVocabulary {
		if k.re.MatchString(folded) {
			out = append(out, k.tag)
		}
	}
	return out
}

// blockTags get a line break around them when flattening text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "footer": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// blockText flattens sel into text, breaking lines at block elements so
// that line-based rules see one logical line per cell or paragraph.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, n *goquery.Selection) {
			name := goquery.NodeName(n)
			switch {
			case name == "#text":
				b.WriteString(n.Text())
			case strings.HasPrefix(name, "#"), skipTags[name]:
			case blockTags[name]:
				b.WriteByte('\n')
				walk(n)
				b.WriteByte('\n')
			default:
				walk(n)
			}
		})
	}
	walk(sel)
	return b.String()
}
