package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"immosearch/utils"
)

// Request headers sent to every source.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	AcceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguage = "fr-FR,fr;q=0.9"
)

// PageFetcher returns the raw markup of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// CollyFetcher fetches static pages over HTTP.
type CollyFetcher struct {
	collector *colly.Collector
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// NewCollyFetcher creates a fetcher whose single requests time out after
// timeout. Failed requests are retried per retry.
func NewCollyFetcher(timeout time.Duration, retry *utils.RetryConfig, logger *utils.Logger) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	return &CollyFetcher{collector: c, retry: retry, logger: logger}
}

// Fetch downloads pageURL. Non-2xx statuses are errors.
func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	var body string
	err := f.retry.Do(ctx, "fetch "+pageURL, func(ctx context.Context) error {
		b, err := f.fetchOnce(ctx, pageURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetcher: %w", err)
	}
	return body, nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	c := f.collector.Clone()
	c.Context = ctx

	var (
		body    []byte
		failure error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", AcceptHeader)
		r.Headers.Set("Accept-Language", AcceptLanguage)
		f.logger.Debug("[fetcher] GET %s", r.URL)
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		if status != 0 {
			failure = fmt.Errorf("GET %s: status %d %s: %w", pageURL, status, http.StatusText(status), err)
			return
		}
		failure = fmt.Errorf("GET %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil && failure == nil {
		failure = fmt.Errorf("GET %s: %w", pageURL, err)
	}
	c.Wait()

	if failure != nil {
		return "", failure
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return string(body), nil
}
