package search

import (
	"strings"

	"github.com/lexigraph/lexigraph/internal/models"
)

const (
	// highlightRadius is how many characters of context surround a match.
	highlightRadius = 50
	// maxHighlightsPerDoc bounds highlights a single retriever emits per hit.
	maxHighlightsPerDoc = 3
)

// highlightDocument builds marked-up fragments for each query term found in
// the document, preferring title, then summary, then content.
func highlightDocument(doc *models.Document, terms []string) []models.Highlight {
	var highlights []models.Highlight
	seen := make(map[string]struct{})
	sections := []struct {
		source string
		text   string
	}{
		{"title", doc.Title},
		{"summary", doc.Summary},
		{"content", doc.Content},
	}
	for _, term := range terms {
		if len(highlights) >= maxHighlightsPerDoc {
			break
		}
		if _, dup := seen[term]; dup {
			continue
		}
		for _, sec := range sections {
			frag, ok := markFragment(sec.text, term)
			if !ok {
				continue
			}
			highlights = append(highlights, models.Highlight{Source: sec.source, Text: frag})
			seen[term] = struct{}{}
			break
		}
	}
	return highlights
}

// markFragment finds the first case-insensitive occurrence of term in text
// and returns the surrounding context with the match wrapped in <mark> tags.
func markFragment(text, term string) (string, bool) {
	if text == "" || term == "" {
		return "", false
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(term))
	if idx < 0 {
		return "", false
	}
	end := idx + len(term)

	lo := idx - highlightRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + highlightRadius
	if hi > len(text) {
		hi = len(text)
	}

	var b strings.Builder
	if lo > 0 {
		b.WriteString("...")
	}
	b.WriteString(text[lo:idx])
	b.WriteString("<mark>")
	b.WriteString(text[idx:end])
	b.WriteString("</mark>")
	b.WriteString(text[end:hi])
	if hi < len(text) {
		b.WriteString("...")
	}
	return b.String(), true
}
