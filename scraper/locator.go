package scraper

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"immosearch/models"
)

// MaxTextScanCandidates bounds the fallback scan.
const MaxTextScanCandidates = 50

// StrategyTextScan names the fallback strategy in Located.Strategy.
const StrategyTextScan = "text-scan"

var currencyRegexp = regexp.MustCompile(`(?i)XPF|F\s*CFP`)

// HasCurrency reports whether text carries a currency marker.
func HasCurrency(text string) bool {
	return currencyRegexp.MatchString(text)
}

// Located is the outcome of one locator run.
type Located struct {
	Candidates []*goquery.Selection
	// Strategy is the winning selector, StrategyTextScan, or empty when
	// nothing was found.
	Strategy string
}

// Locate isolates listing cards in doc. Patterns are tried in order and the
// first one with at least one match wins. Only when none match are elements
// scanned for currency markers.
func Locate(doc *goquery.Document, patterns []models.Pattern) Located {
	for _, p := range patterns {
		if p.Selector == "" {
			continue
		}
		matches := doc.Find(p.Selector)
		if p.RequireCurrency {
			matches = matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
				return HasCurrency(s.Text())
			})
		}
		if matches.Length() > 0 {
			return Located{Candidates: split(matches), Strategy: p.Selector}
		}
	}

	found := textScan(doc)
	if len(found) == 0 {
		return Located{}
	}
	return Located{Candidates: found, Strategy: StrategyTextScan}
}

// textScan keeps the innermost elements whose text mentions a currency:
// an element is dropped when one of its children also mentions it, so a
// container and its card are never both returned.
func textScan(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if skipTags[goquery.NodeName(s)] || !HasCurrency(s.Text()) {
			return true
		}
		innerHit := s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return HasCurrency(c.Text())
		})
		if innerHit.Length() == 0 {
			out = append(out, s)
		}
		return len(out) < MaxTextScanCandidates
	})
	return out
}

func split(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"title":    true,
}
