package search

import (
	"sort"

	"github.com/lexigraph/lexigraph/internal/models"
)

const (
	// modeBonus is added per distinct contributing mode in hybrid fusion.
	modeBonus = 0.1
	// defaultModeWeight applies to modes without an explicit weight.
	defaultModeWeight = 0.3
	// maxFusedHighlights caps highlights on a fused result.
	maxFusedHighlights = 5
)

var modeWeights = map[models.Mode]float64{
	models.ModeLexical:  0.4,
	models.ModeSemantic: 0.4,
	models.ModeConcept:  0.2,
}

// fusionOrder fixes the order modes contribute highlights and appear in
// MatchedModes.
var fusionOrder = []models.Mode{models.ModeLexical, models.ModeSemantic, models.ModeConcept}

// fuse merges per-mode results into the final ranked list. Documents failing
// allowed are dropped from every mode. In single-mode queries scores pass
// through unchanged. In hybrid mode a document found by one mode keeps its
// score; one found by k>1 modes gets sum(score x weight) + k x bonus.
func fuse(perMode map[models.Mode][]modeResult, mode models.Mode, limit int, allowed func(docID string) bool) []*models.SearchResult {
	type fused struct {
		modes               []models.Mode
		weighted            float64
		single              float64
		highlights          []models.Highlight
		matchedConceptCount int
	}
	byDoc := make(map[string]*fused)

	for _, m := range fusionOrder {
		for _, r := range perMode[m] {
			if !allowed(r.documentID) {
				continue
			}
			f := byDoc[r.documentID]
			if f == nil {
				f = &fused{}
				byDoc[r.documentID] = f
			}
			weight, ok := modeWeights[m]
			if !ok {
				weight = defaultModeWeight
			}
			f.modes = append(f.modes, m)
			f.weighted += r.score * weight
			f.single = r.score
			f.highlights = append(f.highlights, r.highlights...)
			if r.matchedConceptCount > f.matchedConceptCount {
				f.matchedConceptCount = r.matchedConceptCount
			}
		}
	}

	results := make([]*models.SearchResult, 0, len(byDoc))
	for docID, f := range byDoc {
		score := f.single
		if len(f.modes) > 1 {
			score = f.weighted + float64(len(f.modes))*modeBonus
		}
		highlights := f.highlights
		if len(highlights) > maxFusedHighlights {
			highlights = highlights[:maxFusedHighlights]
		}
		res := &models.SearchResult{
			DocumentID:          docID,
			Score:               score,
			Mode:                mode,
			Highlights:          highlights,
			MatchedConceptCount: f.matchedConceptCount,
		}
		if mode == models.ModeHybrid {
			res.MatchedModes = f.modes
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}
