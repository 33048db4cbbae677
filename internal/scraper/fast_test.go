package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseFixture(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestExtractFromHTMLRichPage(t *testing.T) {
	doc := parseFixture(t, `<html><head>
		<title>Flask Docs</title>
		<meta name="description" content="Official Flask documentation">
	</head><body>
		<h1>Quickstart</h1>
		<p>`+strings.Repeat("Flask is a lightweight WSGI web application framework. ", 50)+`</p>
	</body></html>`)

	res := extractFromHTML(doc, 100_000)
	require.Equal(t, "Flask Docs", res.Title)
	require.Equal(t, "Official Flask documentation", res.MetaDescription)
	require.Contains(t, res.Headings, "Quickstart")
	require.GreaterOrEqual(t, res.QualityScore, 5)
}

func TestExtractFromHTMLSkeletonPage(t *testing.T) {
	doc := parseFixture(t, `<html><head><title>App</title></head><body><div id="root"></div></body></html>`)

	res := extractFromHTML(doc, 100_000)
	require.Less(t, res.QualityScore, 5)
}

func TestExtractFromHTMLPenalizesBoilerplateHeavyPage(t *testing.T) {
	doc := parseFixture(t, `<html><body>
		<nav>`+strings.Repeat("Home About Contact Blog Pricing Login Signup ", 50)+`</nav>
		<p>Short.</p>
	</body></html>`)

	res := extractFromHTML(doc, 100_000)
	require.Less(t, res.QualityScore, 5)
}

func TestExtractFromHTMLTruncatesToMaxChars(t *testing.T) {
	doc := parseFixture(t, `<html><body><p>`+strings.Repeat("a", 10_000)+`</p></body></html>`)

	res := extractFromHTML(doc, 100)
	require.LessOrEqual(t, len(res.Body), 100)
}
