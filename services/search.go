package services

import (
	"context"
	"fmt"
	"time"

	"immosearch/models"
	"immosearch/scraper"
	"immosearch/utils"
)

// SearchConfig bounds the fan-out of one search.
type SearchConfig struct {
	Timeout        time.Duration // per unit
	MaxConcurrency int
	RateLimitMs    int
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	Listings  []*models.Listing // deduplicated and filtered
	Raw       []models.RawListing
	SourceIDs []string
	Stats     []models.SourceStats
	Total     int // listings after dedup, before filtering
}

// SearchService fetches every selected source, extracts listings and applies
// the filter.
type SearchService struct {
	catalog *scraper.Catalog
	static  scraper.PageFetcher
	render  scraper.PageFetcher
	dedupe  *Deduplicator
	cfg     SearchConfig
	logger  *utils.Logger
	now     func() time.Time
}

// NewSearchService wires a search service. render may be nil, in which case
// sources flagged for rendering are fetched statically.
func NewSearchService(catalog *scraper.Catalog, static, render scraper.PageFetcher, cfg SearchConfig, logger *utils.Logger) *SearchService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SearchService{
		catalog: catalog,
		static:  static,
		render:  render,
		dedupe:  NewDeduplicator(logger),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Sources returns the whole catalog, inactive sources included.
func (s *SearchService) Sources() []models.Source {
	return s.catalog.Sources
}

type unitResult struct {
	page scraper.PageResult
	err  error
}

// Search runs every unit of the requested sources (all active ones when ids
// is empty). Units run to completion even if ctx is cancelled; failed units
// contribute nothing. Only a failure outside the unit boundary is returned.
func (s *SearchService) Search(ctx context.Context, spec models.FilterSpec, ids []string) (res *SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("search: pipeline panic: %v", r)
		}
	}()

	start := s.now()
	sources := s.catalog.Select(ids)

	var units []scraper.Unit
	stats := make([]models.SourceStats, len(sources))
	statIdx := make(map[string]int, len(sources))
	sourceIDs := make([]string, 0, len(sources))
	for i, src := range sources {
		stats[i].SourceID = src.ID
		statIdx[src.ID] = i
		sourceIDs = append(sourceIDs, src.ID)

		su, err := scraper.Units(src)
		if err != nil {
			s.logger.Warn("[search] %s: %v", src.ID, err)
			stats[i].UnitsFailed++
			continue
		}
		units = append(units, su...)
	}

	s.logger.Info("[search] %d sources, %d units", len(sources), len(units))

	detached := context.WithoutCancel(ctx)
	results := make([]unitResult, len(units))
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	for i := range units {
		pool.Submit(func() {
			results[i] = s.runUnit(detached, units[i])
		})
	}
	pool.Wait()

	var (
		listings []*models.Listing
		raw      []models.RawListing
	)
	for i, r := range results {
		u := units[i]
		st := &stats[statIdx[u.Source.ID]]
		if r.err != nil {
			st.UnitsFailed++
			s.logger.Warn("[search] %s %s failed: %v", u.Source.ID, u.URL, r.err)
			continue
		}
		st.UnitsOK++
		st.Candidates += r.page.Candidates
		s.logger.Debug("[search] %s %s: %s", u.Source.ID, u.URL, r.page.Summary())
		listings = append(listings, r.page.Listings...)
		raw = append(raw, r.page.Raw...)
	}

	unique := s.withIDs(s.dedupe.Dedupe(listings), start)
	for _, l := range unique {
		stats[statIdx[l.Source]].Listings++
	}

	filtered := Filter(unique, spec)
	s.logger.Info("[search] %d listings (%d after filters) in %s",
		len(unique), len(filtered), s.now().Sub(start).Round(time.Millisecond))

	return &SearchResult{
		Listings:  filtered,
		Raw:       raw,
		SourceIDs: sourceIDs,
		Stats:     stats,
		Total:     len(unique),
	}, nil
}

func (s *SearchService) runUnit(ctx context.Context, u scraper.Unit) (res unitResult) {
	defer func() {
		if r := recover(); r != nil {
			res = unitResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	markup, err := s.fetcherFor(u.Source).Fetch(ctx, u.URL)
	if err != nil {
		return unitResult{err: err}
	}
	if err := ctx.Err(); err != nil {
		return unitResult{err: err}
	}

	page, err := scraper.ParsePage(markup, u.Source, u.Category.Index)
	if err != nil {
		return unitResult{err: err}
	}
	return unitResult{page: page}
}

func (s *SearchService) fetcherFor(src *models.Source) scraper.PageFetcher {
	if src.Render && s.render != nil {
		return s.render
	}
	return s.static
}

// withIDs returns the final records, numbered per source as
// <prefix>-<unix ms>-<n>. The extracted listings are left untouched.
func (s *SearchService) withIDs(listings []*models.Listing, at time.Time) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	counters := make(map[string]int)
	for _, l := range listings {
		prefix := l.Source
		if src, ok := s.catalog.Get(l.Source); ok {
			prefix = src.IDPrefix
		}
		final := *l
		final.ID = fmt.Sprintf("%s-%d-%d", prefix, at.UnixMilli(), counters[l.Source])
		counters[l.Source]++
		out = append(out, &final)
	}
	return out
}
