package index

import (
	"sort"

	"github.com/lexigraph/lexigraph/pkg/utils"
)

// VectorIndex is an immutable in-memory embedding index. Missing embeddings
// are allowed; coverage reports how much of the corpus is embedded.
type VectorIndex struct {
	embeddings map[string][]float32
}

// Match is a scored document hit from a vector search.
type Match struct {
	DocumentID string
	Score      float64
}

// NewVectorIndex builds a vector index from docID to embedding. Nil
// embeddings are skipped.
func NewVectorIndex(embeddings map[string][]float32) *VectorIndex {
	idx := &VectorIndex{embeddings: make(map[string][]float32, len(embeddings))}
	for id, emb := range embeddings {
		if len(emb) > 0 {
			idx.embeddings[id] = emb
		}
	}
	return idx
}

// Search returns documents whose embedding cosine similarity to query
// exceeds threshold, sorted by score descending with document ID as the
// tie-break, truncated to limit (0 means unlimited).
func (v *VectorIndex) Search(query []float32, threshold float64, limit int) []Match {
	var matches []Match
	for id, emb := range v.embeddings {
		score := utils.Cosine(query, emb)
		if score > threshold {
			matches = append(matches, Match{DocumentID: id, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DocumentID < matches[j].DocumentID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Has reports whether docID has an embedding.
func (v *VectorIndex) Has(docID string) bool {
	_, ok := v.embeddings[docID]
	return ok
}

// Size returns the number of embedded documents.
func (v *VectorIndex) Size() int {
	return len(v.embeddings)
}

// Coverage returns the fraction of total documents that are embedded.
func (v *VectorIndex) Coverage(total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(len(v.embeddings)) / float64(total)
}
