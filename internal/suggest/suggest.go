// Package suggest serves typeahead suggestions over concept names and
// document titles from an in-memory Bleve index.
package suggest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexigraph/lexigraph/internal/models"
)

// minPrefixLength is the shortest prefix that yields suggestions.
const minPrefixLength = 2

// maxTitleSuggestions caps title suggestions per query.
const maxTitleSuggestions = 5

type entry struct {
	Prefix     string  `json:"prefix"`
	Text       string  `json:"text"`
	Kind       string  `json:"kind"`
	Frequency  float64 `json:"frequency"`
	DocumentID string  `json:"document_id"`
}

// Index is a rebuildable in-memory suggestion index. Rebuild constructs a
// fresh Bleve index and swaps it in; queries always see a complete index.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewIndex creates an empty suggestion index.
func NewIndex() *Index {
	return &Index{}
}

func newMemIndex() (bleve.Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Keyword analyzer keeps the whole lowered string as one token so prefix
	// queries match across word boundaries ("usability te" hits
	// "usability testing").
	prefixMapping := bleve.NewTextFieldMapping()
	prefixMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("prefix", prefixMapping)

	storedMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("text", storedMapping)
	docMapping.AddFieldMappingsAt("kind", storedMapping)
	docMapping.AddFieldMappingsAt("document_id", storedMapping)
	docMapping.AddFieldMappingsAt("frequency", bleve.NewNumericFieldMapping())

	im.DefaultMapping = docMapping
	return bleve.NewMemOnly(im)
}

// Rebuild replaces the index contents with the given concepts and document
// titles.
func (s *Index) Rebuild(concepts []*models.Concept, docs []*models.Document) error {
	idx, err := newMemIndex()
	if err != nil {
		return fmt.Errorf("failed to create suggestion index: %w", err)
	}

	batch := idx.NewBatch()
	for _, c := range concepts {
		e := entry{
			Prefix:    strings.ToLower(c.Name),
			Text:      c.Name,
			Kind:      models.SuggestionConcept,
			Frequency: float64(c.Frequency),
		}
		if err := batch.Index("concept:"+c.ID, e); err != nil {
			return fmt.Errorf("failed to index concept suggestion: %w", err)
		}
	}
	for _, doc := range docs {
		if strings.TrimSpace(doc.Title) == "" {
			continue
		}
		e := entry{
			Prefix:     strings.ToLower(doc.Title),
			Text:       doc.Title,
			Kind:       models.SuggestionTitle,
			DocumentID: doc.ID,
		}
		if err := batch.Index("title:"+doc.ID, e); err != nil {
			return fmt.Errorf("failed to index title suggestion: %w", err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to build suggestion index: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = idx
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Query returns suggestions for the prefix: concepts whose name starts with
// the prefix ordered by frequency descending, then up to five document
// titles containing it anywhere. The combined list never exceeds limit.
// Prefixes shorter than two characters yield nothing.
func (s *Index) Query(prefix string, limit int) ([]models.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < minPrefixLength {
		return []models.Suggestion{}, nil
	}

	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx == nil {
		return []models.Suggestion{}, nil
	}
	lowered := strings.ToLower(prefix)

	pq := bleve.NewPrefixQuery(lowered)
	pq.SetField("prefix")
	concepts, _, err := runSuggestQuery(idx, pq)
	if err != nil {
		return nil, err
	}

	// Titles match by substring, not prefix, so "report" still suggests
	// "Usability Report Q3".
	wq := bleve.NewWildcardQuery("*" + lowered + "*")
	wq.SetField("prefix")
	_, titles, err := runSuggestQuery(idx, wq)
	if err != nil {
		return nil, err
	}

	sort.Slice(concepts, func(i, j int) bool {
		if concepts[i].Frequency != concepts[j].Frequency {
			return concepts[i].Frequency > concepts[j].Frequency
		}
		return concepts[i].Text < concepts[j].Text
	})
	if limit > 0 && len(concepts) > limit {
		concepts = concepts[:limit]
	}

	sort.Slice(titles, func(i, j int) bool { return titles[i].Text < titles[j].Text })
	if len(titles) > maxTitleSuggestions {
		titles = titles[:maxTitleSuggestions]
	}

	out := append(concepts, titles...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func runSuggestQuery(idx bleve.Index, q query.Query) (concepts, titles []models.Suggestion, err error) {
	req := bleve.NewSearchRequest(q)
	req.Size = 200
	req.Fields = []string{"text", "kind", "frequency", "document_id"}

	res, err := idx.Search(req)
	if err != nil {
		return nil, nil, fmt.Errorf("suggestion search failed: %w", err)
	}
	for _, hit := range res.Hits {
		sug := models.Suggestion{}
		if v, ok := hit.Fields["text"].(string); ok {
			sug.Text = v
		}
		if v, ok := hit.Fields["kind"].(string); ok {
			sug.Kind = v
		}
		if v, ok := hit.Fields["frequency"].(float64); ok {
			sug.Frequency = int(v)
		}
		if v, ok := hit.Fields["document_id"].(string); ok {
			sug.DocumentID = v
		}
		switch sug.Kind {
		case models.SuggestionConcept:
			concepts = append(concepts, sug)
		case models.SuggestionTitle:
			titles = append(titles, sug)
		}
	}
	return concepts, titles, nil
}

// Close releases the underlying index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		return err
	}
	return nil
}
