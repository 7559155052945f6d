package services

import (
	"time"

	"immosearch/config"
	"immosearch/scraper"
	"immosearch/utils"
)

// Build assembles a SearchService from configuration. The returned render
// session is nil unless rendering is enabled; the caller owns it and must
// Close it on shutdown.
func Build(cfg *config.Config, logger *utils.Logger) (*SearchService, *scraper.RenderSession, error) {
	catalog, err := scraper.LoadCatalog(cfg.SourcesFile)
	if err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(cfg.FetchTimeoutMs) * time.Millisecond
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries + 1,
		BaseDelay:   500 * time.Millisecond,
		Logger:      logger,
	}
	static := scraper.NewCollyFetcher(timeout, retry, logger)

	var (
		session *scraper.RenderSession
		render  scraper.PageFetcher
	)
	if cfg.RenderEnabled {
		session = scraper.NewRenderSession(cfg.ChromeBin, time.Duration(cfg.RenderSettleMs)*time.Millisecond, logger)
		render = session
	}

	svc := NewSearchService(catalog, static, render, SearchConfig{
		Timeout:        timeout,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitMs:    cfg.RateLimitMs,
	}, logger)

	logger.Info("[search] %d sources loaded (%d active), render enabled: %t",
		len(catalog.Sources), len(catalog.Active()), cfg.RenderEnabled)
	return svc, session, nil
}
