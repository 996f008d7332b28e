package concept

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexigraph/lexigraph/internal/models"
)

// lexiconConfidence is assigned to every lexicon sighting; the lexicon only
// lists unambiguous multi-word terms, so matches are high-confidence.
const lexiconConfidence = 0.9

// contextRadius is how many characters around a match are kept as context.
const contextRadius = 100

// lexicon maps concept categories to the terms that signal them. Matching is
// case-insensitive on word boundaries.
var lexicon = map[string][]string{
	"interaction_design": {
		"user interface", "interaction design", "design pattern",
		"affordance", "direct manipulation", "responsive design",
		"navigation design", "information architecture",
	},
	"usability": {
		"usability testing", "usability evaluation", "heuristic evaluation",
		"user testing", "task analysis", "think aloud", "learnability",
		"error prevention", "user satisfaction",
	},
	"cognitive_psychology": {
		"cognitive load", "working memory", "mental model", "attention",
		"perception", "recognition over recall", "chunking",
	},
	"accessibility": {
		"accessibility", "screen reader", "color contrast", "wcag",
		"assistive technology", "keyboard navigation",
	},
	"research_methods": {
		"user research", "contextual inquiry", "survey", "interview",
		"a/b testing", "card sorting", "diary study", "field study",
		"participatory design",
	},
	"evaluation": {
		"user experience", "satisfaction rating", "task success",
		"time on task", "error rate", "system usability scale",
	},
}

// LexiconExtractor finds known concept terms in document text using
// word-boundary matching.
type LexiconExtractor struct {
	patterns []lexiconPattern
}

type lexiconPattern struct {
	name     string
	category string
	re       *regexp.Regexp
}

// NewLexiconExtractor compiles the built-in term lexicon.
func NewLexiconExtractor() *LexiconExtractor {
	e := &LexiconExtractor{}
	for category, terms := range lexicon {
		for _, term := range terms {
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
			e.patterns = append(e.patterns, lexiconPattern{
				name:     term,
				category: category,
				re:       re,
			})
		}
	}
	sort.Slice(e.patterns, func(i, j int) bool {
		if e.patterns[i].category != e.patterns[j].category {
			return e.patterns[i].category < e.patterns[j].category
		}
		return e.patterns[i].name < e.patterns[j].name
	})
	return e
}

// Extract returns one sighting per lexicon term found in text, with the
// surrounding context of the first occurrence.
func (e *LexiconExtractor) Extract(text string) []models.Sighting {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var sightings []models.Sighting
	for _, p := range e.patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		sightings = append(sightings, models.Sighting{
			Name:       p.name,
			Category:   p.category,
			Context:    contextAround(text, loc[0], loc[1]),
			Confidence: lexiconConfidence,
		})
	}
	return sightings
}

func contextAround(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}
