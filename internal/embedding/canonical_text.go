package embedding

import (
	"regexp"
	"strings"
)

// headBytes and tailBytes bound how much of a bookmark's body feeds the
// embedding text. Changing either value changes the recipe and
// requires reprocessing every stored embedding.
const (
	headBytes = 5000
	tailBytes = 1000
)

var wsRun = regexp.MustCompile(`\s+`)

// BookmarkText carries the fields the canonical recipe composes from.
type BookmarkText struct {
	Title           string
	MetaDescription string
	Headings        []string
	UserNotes       string
	Body            string
}

// BuildCanonicalText assembles the text that is embedded for a bookmark:
// title, then meta description, then headings, then user notes, then the
// first headBytes chars of the body plus the last tailBytes chars. Only
// ingestion uses this recipe; query text is not built with it (the fast
// engine embeds the request text as given, and BuildQueryText shares
// only the whitespace normalization).
func BuildCanonicalText(t BookmarkText) string {
	var parts []string

	if title := strings.TrimSpace(t.Title); title != "" {
		parts = append(parts, title)
	}
	if desc := strings.TrimSpace(t.MetaDescription); desc != "" {
		parts = append(parts, desc)
	}
	if len(t.Headings) > 0 {
		parts = append(parts, strings.Join(t.Headings, ". "))
	}
	if notes := strings.TrimSpace(t.UserNotes); notes != "" {
		parts = append(parts, notes)
	}

	body := strings.TrimSpace(t.Body)
	if body != "" {
		head := body
		if len(head) > headBytes {
			head = head[:headBytes]
		}
		parts = append(parts, head)

		if len(body) > headBytes {
			tailStart := len(body) - tailBytes
			if tailStart < headBytes {
				tailStart = headBytes
			}
			if tailStart < len(body) {
				parts = append(parts, body[tailStart:])
			}
		}
	}

	joined := strings.Join(parts, "\n\n")
	return wsRun.ReplaceAllString(joined, " ")
}

// BuildQueryText assembles the text embedded for a recommendation
// request (title + description + technologies), sharing the same
// whitespace normalization as BuildCanonicalText so query and document
// vectors are comparable.
func BuildQueryText(title, description string, technologies []string) string {
	parts := []string{}
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, d)
	}
	if len(technologies) > 0 {
		parts = append(parts, strings.Join(technologies, ", "))
	}
	return wsRun.ReplaceAllString(strings.Join(parts, "\n"), " ")
}
