package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/pkg/utils"
)

// semanticRetriever ranks documents by embedding cosine similarity. Missing
// embedder or vector index degrades to no results, never an error.
type semanticRetriever struct {
	embedder embedding.Embedder
	minScore float64
	logger   *zap.Logger
}

func (s *semanticRetriever) retrieve(ctx context.Context, snap *index.Snapshot, query string, limit int) []modeResult {
	if s.embedder == nil || snap.Vectors == nil || snap.Vectors.Size() == 0 {
		return nil
	}

	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Debug("query embedding unavailable, skipping semantic mode", zap.Error(err))
		return nil
	}

	// The shortlist is bounded before filters apply; a heavily filtered
	// corpus can return fewer than limit results.
	matches := snap.Vectors.Search(queryEmb, s.minScore, 2*limit)
	results := make([]modeResult, 0, len(matches))
	for _, m := range matches {
		r := modeResult{documentID: m.DocumentID, score: m.Score}
		if doc, ok := snap.ByID[m.DocumentID]; ok && doc.Summary != "" {
			r.highlights = []models.Highlight{{
				Source: "summary",
				Text:   utils.Truncate(doc.Summary, 2*highlightRadius),
			}}
		}
		results = append(results, r)
	}
	return results
}
