package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"immosearch/utils"
)

// ErrSessionClosed is returned by Fetch after Close.
var ErrSessionClosed = errors.New("render session closed")

// RenderSession is a shared headless browser used for pages that need
// scripts to run before their listings exist. The browser is started on the
// first Fetch and stopped by Close.
type RenderSession struct {
	chromeBin string
	settle    time.Duration
	logger    *utils.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	closed        bool
}

// NewRenderSession returns an idle session; no browser is launched yet.
func NewRenderSession(chromeBin string, settle time.Duration, logger *utils.Logger) *RenderSession {
	return &RenderSession{chromeBin: chromeBin, settle: settle, logger: logger}
}

// Started reports whether the browser has been launched.
func (s *RenderSession) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browserCtx != nil
}

func (s *RenderSession) ensureBrowser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	chromeBin := findChromeBinary(s.chromeBin)
	s.logger.Info("[render] Starting headless browser (binary: %q)", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "fr-FR"),
		chromedp.UserAgent(UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("render: start browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.cancelAlloc = cancelAlloc
	s.cancelBrowser = cancelBrowser
	return browserCtx, nil
}

// Fetch loads pageURL in a fresh tab, waits for the settle delay and returns
// the rendered document. ctx bounds the whole operation.
func (s *RenderSession) Fetch(ctx context.Context, pageURL string) (string, error) {
	browserCtx, err := s.ensureBrowser()
	if err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(s.settle),
		chromedp.Evaluate(`document.documentElement.outerHTML`, &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("render: %s: %w", pageURL, ctx.Err())
		}
		return "", fmt.Errorf("render: %s: %w", pageURL, err)
	}
	return html, nil
}

// Close stops the browser if it was started. It is safe to call more than
// once.
func (s *RenderSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.browserCtx == nil {
		return nil
	}

	s.logger.Info("[render] Stopping headless browser")
	err := chromedp.Cancel(s.browserCtx)
	s.cancelBrowser()
	s.cancelAlloc()
	s.browserCtx = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("render: close: %w", err)
	}
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured one. Empty means let chromedp search.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
