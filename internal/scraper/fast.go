package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
}

// fastStrategy fetches a page with net/http and parses it with
// golang.org/x/net/html. It is cheap and works for most static sites,
// but produces a low score against JS-rendered or paywalled pages.
type fastStrategy struct {
	client *http.Client
}

func (f *fastStrategy) name() string { return "fast" }

func (f *fastStrategy) httpClient() *http.Client {
	if f.client == nil {
		f.client = &http.Client{Timeout: 15 * time.Second}
	}
	return f.client
}

func (f *fastStrategy) fetch(ctx context.Context, rawURL string, maxChars int) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", userAgents[int(time.Now().UnixNano())%len(userAgents)])
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("http %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20)) // 2MB cap
	if err != nil {
		return Result{}, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return Result{}, err
	}

	return extractFromHTML(doc, maxChars), nil
}

// extractFromHTML walks the parsed DOM for title, meta description,
// headings, and the visible text body, then scores the result.
func extractFromHTML(doc *html.Node, maxChars int) Result {
	var res Result
	var bodyText strings.Builder
	boilerplateChars := 0
	totalChars := 0

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if res.Title == "" {
					res.Title = textOf(n)
				}
				return
			case "meta":
				if attr(n, "name") == "description" || attr(n, "property") == "og:description" {
					if res.MetaDescription == "" {
						res.MetaDescription = attr(n, "content")
					}
				}
			case "h1", "h2", "h3":
				if t := strings.TrimSpace(textOf(n)); t != "" {
					res.Headings = append(res.Headings, t)
				}
			case "nav", "footer", "aside":
				boilerplateChars += len(textOf(n))
			}
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				bodyText.WriteString(t)
				bodyText.WriteString(" ")
				totalChars += len(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	body := bodyText.String()
	if len(body) > maxChars {
		body = body[:maxChars]
	}
	res.Body = body

	res.QualityScore = scoreExtraction(res, totalChars, boilerplateChars)
	return res
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// scoreExtraction produces a 0-10 quality score: presence of a title
// and headings, body length, and a penalty when the page is mostly
// boilerplate (nav/footer/aside) rather than article content — a rough
// paywall/skeleton-page heuristic.
func scoreExtraction(res Result, totalChars, boilerplateChars int) int {
	score := 0
	if res.Title != "" {
		score += 2
	}
	if res.MetaDescription != "" {
		score += 1
	}
	if len(res.Headings) > 0 {
		score += 2
	}
	switch {
	case totalChars >= 2000:
		score += 4
	case totalChars >= 500:
		score += 2
	case totalChars >= 100:
		score += 1
	}
	if totalChars > 0 && boilerplateChars*2 > totalChars {
		score -= 2
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}
