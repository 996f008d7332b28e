package index

import (
	"errors"
	"math"
	"sort"

	"github.com/lexigraph/lexigraph/internal/models"
)

// ErrEmptyVocabulary indicates no term survived vocabulary filtering, which
// happens on tiny corpora where every term exceeds the document-ratio cap.
// Lexical retrieval then falls back to direct term matching.
var ErrEmptyVocabulary = errors.New("term index vocabulary is empty")

// TermOptions bounds the vocabulary of a term index build.
type TermOptions struct {
	MaxVocabulary    int
	MinDocumentCount int
	MaxDocumentRatio float64
}

// TermIndex is an immutable TF-IDF index over a document corpus. Per-document
// vectors are sparse and L2-normalized, so cosine similarity reduces to a
// sparse dot product.
type TermIndex struct {
	idf     map[string]float64
	vectors map[string]map[string]float64
}

// BuildTermIndex computes a TF-IDF index over docs. Terms are unigrams and
// bigrams; the vocabulary keeps terms appearing in at least
// MinDocumentCount documents and at most MaxDocumentRatio of the corpus,
// capped at MaxVocabulary by total corpus frequency.
func BuildTermIndex(docs []*models.Document, opts TermOptions) (*TermIndex, error) {
	n := len(docs)
	if n == 0 {
		return nil, ErrEmptyVocabulary
	}

	docTerms := make([]map[string]int, n)
	df := make(map[string]int)
	corpusFreq := make(map[string]int)
	for i, doc := range docs {
		counts := make(map[string]int)
		for _, term := range Analyze(doc.Title + " " + doc.Content) {
			counts[term]++
		}
		docTerms[i] = counts
		for term, c := range counts {
			df[term]++
			corpusFreq[term] += c
		}
	}

	var kept []string
	for term, d := range df {
		if d < opts.MinDocumentCount {
			continue
		}
		// With a single document every term has ratio 1.0 and the cap
		// excludes the whole vocabulary; callers fall back to direct
		// term matching until a second document arrives.
		if float64(d)/float64(n) > opts.MaxDocumentRatio {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if opts.MaxVocabulary > 0 && len(kept) > opts.MaxVocabulary {
		sort.Slice(kept, func(i, j int) bool {
			if corpusFreq[kept[i]] != corpusFreq[kept[j]] {
				return corpusFreq[kept[i]] > corpusFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:opts.MaxVocabulary]
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1.
	idf := make(map[string]float64, len(kept))
	for _, term := range kept {
		idf[term] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make(map[string]map[string]float64, n)
	for i, doc := range docs {
		vec := make(map[string]float64)
		for term, count := range docTerms[i] {
			w, ok := idf[term]
			if !ok {
				continue
			}
			vec[term] = float64(count) * w
		}
		normalizeSparse(vec)
		vectors[doc.ID] = vec
	}

	return &TermIndex{idf: idf, vectors: vectors}, nil
}

// VocabularySize returns the number of terms in the vocabulary.
func (t *TermIndex) VocabularySize() int {
	return len(t.idf)
}

// QueryVector converts a query into an L2-normalized TF-IDF vector using the
// index vocabulary. Terms outside the vocabulary are dropped; the result may
// be empty.
func (t *TermIndex) QueryVector(query string) map[string]float64 {
	counts := make(map[string]int)
	for _, term := range Analyze(query) {
		counts[term]++
	}
	vec := make(map[string]float64)
	for term, count := range counts {
		if w, ok := t.idf[term]; ok {
			vec[term] = float64(count) * w
		}
	}
	normalizeSparse(vec)
	return vec
}

// Score returns the cosine similarity between the query vector and the
// stored vector for docID. Both are unit vectors, so this is a dot product.
func (t *TermIndex) Score(queryVec map[string]float64, docID string) float64 {
	docVec, ok := t.vectors[docID]
	if !ok {
		return 0
	}
	var dot float64
	// Iterate the smaller map.
	a, b := queryVec, docVec
	if len(b) < len(a) {
		a, b = b, a
	}
	for term, w := range a {
		if v, ok := b[term]; ok {
			dot += w * v
		}
	}
	return dot
}

func normalizeSparse(vec map[string]float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for term := range vec {
		vec[term] /= norm
	}
}
