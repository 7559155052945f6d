package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"immosearch/models"
)

const (
	minTitleLen = 5

	placeholderImage = "https://via.placeholder.com/800x600/e5e7eb/9ca3af?text="
)

// Extractor turns candidate elements of one source into listings.
type Extractor struct {
	source *models.Source
	base   *url.URL
	now    func() time.Time
}

// NewExtractor prepares an Extractor for src.
func NewExtractor(src *models.Source) (*Extractor, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("extractor: source %q base url: %w", src.ID, err)
	}
	return &Extractor{source: src, base: base, now: time.Now}, nil
}

// Extract reads one candidate found on the page of the given category (0
// when the page has no category). The raw fields are always returned; the
// listing is nil when the candidate fails the validity gate or extraction
// panics on malformed markup.
func (e *Extractor) Extract(sel *goquery.Selection, category int) (raw models.RawListing, listing *models.Listing) {
	defer func() {
		if r := recover(); r != nil {
			listing = nil
		}
	}()

	c := newCandidate(sel)
	raw = e.rawFields(c, category)
	return raw, e.build(c, raw, category)
}

func (e *Extractor) rawFields(c *candidate, category int) models.RawListing {
	return models.RawListing{
		Source:      e.source.ID,
		Category:    category,
		Title:       cascade(c, titleRules, func(v string) bool { return utf8.RuneCountInString(v) >= minTitleLen }),
		PriceText:   cascade(c, priceRules, func(v string) bool { return NormalizePrice(v) > 0 }),
		Location:    cascade(c, locationRules, nil),
		ImageURL:    e.resolve(attrOf(c.sel.Find("img").First(), "src", "data-src")),
		DetailURL:   e.resolve(firstHref(c.sel)),
		Description: cascade(c, descriptionRules, nil),
		Text:        CollapseSpace(c.text),
		ScrapedAt:   e.now(),
	}
}

// build applies normalization and the validity gate.
func (e *Extractor) build(c *candidate, raw models.RawListing, category int) *models.Listing {
	price := NormalizePrice(raw.PriceText)
	if price <= 0 || !PriceInRange(price, models.MinPrice, models.MaxPrice) {
		return nil
	}
	title := Truncate(raw.Title, MaxTitleLen)
	if utf8.RuneCountInString(title) < minTitleLen {
		return nil
	}

	location := raw.Location
	if location == "" {
		location = e.source.LocationPlaceholder
	}

	description := raw.Description
	if description == "" {
		description = title
	}

	propertyType := PropertyType(title)
	image := raw.ImageURL
	if image == "" {
		image = placeholderImage + url.QueryEscape(propertyType)
	}

	return &models.Listing{
		Source:          e.source.ID,
		SourceName:      e.source.Name,
		SourceColor:     e.source.Color,
		Title:           title,
		Price:           price,
		PriceText:       raw.PriceText,
		PriceNormalized: price,
		Location:        Truncate(location, MaxLocationLen),
		Surface:         Atoi(cascade(c, surfaceRules, nil)),
		Rooms:           Atoi(cascade(c, roomsRules, nil)),
		PropertyType:    propertyType,
		Type:            propertyType,
		TransactionType: TransactionType(category, e.source.RentThreshold, c.folded),
		Features:        features(c.folded),
		ImageURL:        image,
		URL:             raw.DetailURL,
		Description:     Truncate(description, MaxDescriptionLen),
		DateAdded:       raw.ScrapedAt,
	}
}

// PropertyType classifies from the title only, defaulting to house.
func PropertyType(title string) string {
	if t := classify(Fold(title), propertyTypes); t != "" {
		return t
	}
	return models.PropertyHouse
}

// TransactionType uses the category index when the page has one and the
// source defines a rent threshold; otherwise rent wording decides.
func TransactionType(category, rentThreshold int, foldedText string) string {
	if category > 0 && rentThreshold > 0 {
		if category >= rentThreshold {
			return models.TransactionRent
		}
		return models.TransactionSale
	}
	if rentKeywords.re.MatchString(foldedText) {
		return models.TransactionRent
	}
	return models.TransactionSale
}

// firstHref returns the first anchor target that points somewhere.
func firstHref(sel *goquery.Selection) string {
	var out string
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		out = href
		return false
	})
	if out == "" && goquery.NodeName(sel) == "a" {
		out = strings.TrimSpace(sel.AttrOr("href", ""))
	}
	return out
}

// resolve makes ref absolute against the source base URL.
func (e *Extractor) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	return resolveAgainst(e.base, u).String()
}
