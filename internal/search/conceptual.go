package search

import (
	"sort"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/models"
)

// conceptRetriever scores documents by how many query-matched concepts link
// to them and how relevant those links are.
type conceptRetriever struct {
	registry *concept.Registry
}

func (c *conceptRetriever) retrieve(snap *index.Snapshot, query string) []modeResult {
	matched := c.registry.Match(query)
	if len(matched) == 0 {
		return nil
	}
	totalMatched := float64(len(matched))

	type agg struct {
		count        int
		relevanceSum float64
		highlights   []models.Highlight
	}
	perDoc := make(map[string]*agg)
	for _, mc := range matched {
		for _, link := range c.registry.DocumentsFor(mc.ID) {
			// Only documents in the snapshot (completed) are searchable.
			if _, ok := snap.ByID[link.DocumentID]; !ok {
				continue
			}
			a := perDoc[link.DocumentID]
			if a == nil {
				a = &agg{}
				perDoc[link.DocumentID] = a
			}
			a.count++
			a.relevanceSum += link.Relevance
			if len(a.highlights) < maxHighlightsPerDoc {
				text := link.Context
				if text == "" {
					text = mc.Name
				}
				a.highlights = append(a.highlights, models.Highlight{
					Source: "concept",
					Text:   "<mark>" + mc.Name + "</mark>: " + text,
				})
			}
		}
	}

	results := make([]modeResult, 0, len(perDoc))
	for docID, a := range perDoc {
		avgRelevance := a.relevanceSum / float64(a.count)
		results = append(results, modeResult{
			documentID:          docID,
			score:               float64(a.count) * avgRelevance / totalMatched,
			highlights:          a.highlights,
			matchedConceptCount: a.count,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].documentID < results[j].documentID
	})
	return results
}
