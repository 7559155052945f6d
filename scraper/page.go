package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immosearch/models"
)

// PageResult is everything read from one fetched page.
type PageResult struct {
	Strategy   string
	Candidates int
	Raw        []models.RawListing
	Listings   []*models.Listing
}

// Summary is a short log-friendly description.
func (p PageResult) Summary() string {
	if p.Strategy == "" {
		return "no candidates"
	}
	return fmt.Sprintf("%d candidates via %s, %d valid", p.Candidates, p.Strategy, len(p.Listings))
}

// ParsePage runs locator and extractor over one page of markup. Candidates
// that fail extraction are dropped silently; only unparseable markup is an
// error.
func ParsePage(markup string, src *models.Source, category int) (PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return PageResult{}, fmt.Errorf("parse page: %w", err)
	}

	ex, err := NewExtractor(src)
	if err != nil {
		return PageResult{}, err
	}

	located := Locate(doc, src.CandidatePatterns)
	res := PageResult{
		Strategy:   located.Strategy,
		Candidates: len(located.Candidates),
		Raw:        make([]models.RawListing, 0, len(located.Candidates)),
	}
	for _, cand := range located.Candidates {
		raw, listing := ex.Extract(cand, category)
		res.Raw = append(res.Raw, raw)
		if listing != nil {
			res.Listings = append(res.Listings, listing)
		}
	}
	return res, nil
}
