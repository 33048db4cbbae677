package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/net/html"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// headlessStrategy renders a page in a headless Chromium instance before
// extracting content, for sites that gate their real content behind
// client-side JavaScript or basic bot detection.
type headlessStrategy struct {
	bin string
}

func (h *headlessStrategy) name() string { return "headless" }

func (h *headlessStrategy) fetch(ctx context.Context, rawURL string, maxChars int) (Result, error) {
	l := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
	if h.bin != "" {
		l = l.Bin(h.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return Result{}, fmt.Errorf("launch headless browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return Result{}, fmt.Errorf("connect to headless browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
		launcher.NewBrowser().Cleanup()
	}()

	page, err := browser.Page(rod.PageInfo{})
	if err != nil {
		return Result{}, fmt.Errorf("open page: %w", err)
	}
	if err := page.Context(ctx).Navigate(rawURL); err != nil {
		return Result{}, fmt.Errorf("navigate: %w", err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		logging.Get(logging.CategoryScraper).Warn("wait load timed out for %s: %v", rawURL, err)
	}

	htmlStr, err := page.HTML()
	if err != nil {
		return Result{}, fmt.Errorf("read rendered html: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return Result{}, fmt.Errorf("parse rendered html: %w", err)
	}

	return extractFromHTML(doc, maxChars), nil
}
