package search

import (
	"sort"
	"strings"

	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/models"
)

const (
	// fallbackTitleWeight is added once per query term present in the title.
	fallbackTitleWeight = 2.0
	// fallbackSummaryWeight multiplies per-term occurrence counts in the summary.
	fallbackSummaryWeight = 1.0
	// fallbackContentWeight multiplies per-term occurrence counts in the
	// content, capped at fallbackContentCap per term so long documents do
	// not dominate by length alone.
	fallbackContentWeight = 0.1
	fallbackContentCap    = 1.0
)

// lexicalRetriever ranks documents by TF-IDF cosine similarity, falling back
// to weighted term counting when the snapshot carries no term index.
type lexicalRetriever struct {
	minScore float64
}

func (l *lexicalRetriever) retrieve(snap *index.Snapshot, query string, limit int) []modeResult {
	terms := index.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	candidates := prefilter(snap.Docs, terms, 2*limit)
	if len(candidates) == 0 {
		return nil
	}

	var results []modeResult
	if snap.Terms != nil {
		qvec := snap.Terms.QueryVector(query)
		for _, doc := range candidates {
			score := snap.Terms.Score(qvec, doc.ID)
			if score <= l.minScore {
				continue
			}
			results = append(results, modeResult{
				documentID: doc.ID,
				score:      score,
				highlights: highlightDocument(doc, terms),
			})
		}
	} else {
		for _, doc := range candidates {
			score := fallbackScore(doc, terms)
			if score <= 0 {
				continue
			}
			results = append(results, modeResult{
				documentID: doc.ID,
				score:      score,
				highlights: highlightDocument(doc, terms),
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].documentID < results[j].documentID
	})
	return results
}

// prefilter keeps documents containing every query term in title, summary,
// or content, bounded to max candidates. Docs arrive sorted by ID, so the
// candidate set is deterministic.
func prefilter(docs []*models.Document, terms []string, max int) []*models.Document {
	var out []*models.Document
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Title + " " + doc.Summary + " " + doc.Content)
		all := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		out = append(out, doc)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// fallbackScore is the deterministic weighted term-count score used when no
// term index exists.
func fallbackScore(doc *models.Document, terms []string) float64 {
	title := strings.ToLower(doc.Title)
	summary := strings.ToLower(doc.Summary)
	content := strings.ToLower(doc.Content)

	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += fallbackTitleWeight
		}
		score += float64(strings.Count(summary, term)) * fallbackSummaryWeight
		contentScore := float64(strings.Count(content, term)) * fallbackContentWeight
		if contentScore > fallbackContentCap {
			contentScore = fallbackContentCap
		}
		score += contentScore
	}
	return score
}
