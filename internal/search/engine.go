package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/suggest"
)

// Engine coordinates the retrieval modes, fusion, suggestions, and the
// concept graph operations exposed to callers.
type Engine struct {
	manager  *index.Manager
	registry *concept.Registry
	suggest  *suggest.Index

	lexical    lexicalRetriever
	semantic   semanticRetriever
	conceptual conceptRetriever

	cfg    *config.Config
	logger *zap.Logger
}

// NewEngine wires an engine from its components. embedder may be nil;
// semantic retrieval is then skipped.
func NewEngine(manager *index.Manager, registry *concept.Registry, embedder embedding.Embedder, suggestIndex *suggest.Index, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		manager:  manager,
		registry: registry,
		suggest:  suggestIndex,
		lexical:  lexicalRetriever{minScore: cfg.Search.MinLexicalScore},
		semantic: semanticRetriever{
			embedder: embedder,
			minScore: cfg.Search.MinSemanticScore,
			logger:   logger,
		},
		conceptual: conceptRetriever{registry: registry},
		cfg:        cfg,
		logger:     logger,
	}
}

// Search validates the query, fans out to the requested retrieval modes
// against the current snapshot, and fuses their results. An empty corpus
// returns an empty result list, never an error.
func (e *Engine) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	snap, err := e.manager.Current(ctx)
	if err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{
		Results: []*models.SearchResult{},
		Query:   query.Query,
		Mode:    query.Mode,
	}
	if len(snap.Docs) == 0 {
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}

	modes := []models.Mode{query.Mode}
	if query.Mode == models.ModeHybrid {
		modes = []models.Mode{models.ModeLexical, models.ModeSemantic, models.ModeConcept}
	}

	perMode := make(map[models.Mode][]modeResult, len(modes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, m := range modes {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			var results []modeResult
			switch m {
			case models.ModeLexical:
				results = e.lexical.retrieve(snap, query.Query, query.Limit)
			case models.ModeSemantic:
				results = e.semantic.retrieve(ctx, snap, query.Query, query.Limit)
			case models.ModeConcept:
				results = e.conceptual.retrieve(snap, query.Query)
			}
			mu.Lock()
			perMode[m] = results
			mu.Unlock()
		}()
	}
	wg.Wait()

	allowed := func(docID string) bool {
		doc, ok := snap.ByID[docID]
		if !ok {
			return false
		}
		if !query.Filters.Matches(doc) {
			return false
		}
		if len(query.Filters.ConceptIDs) > 0 && !e.registry.LinkedToAny(docID, query.Filters.ConceptIDs) {
			return false
		}
		return true
	}

	resp.Results = fuse(perMode, query.Mode, query.Limit, allowed)
	resp.Total = len(resp.Results)
	resp.QueryTime = time.Since(start).Milliseconds()

	e.logger.Debug("search completed",
		zap.String("query", query.Query),
		zap.String("mode", string(query.Mode)),
		zap.Int("results", resp.Total),
		zap.Int64("elapsed_ms", resp.QueryTime))
	return resp, nil
}

// Suggest returns typeahead completions for the prefix. Prefixes shorter
// than two characters return an empty list.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]models.Suggestion, error) {
	if limit <= 0 {
		limit = e.cfg.Search.DefaultLimit
	}
	if _, err := e.manager.Current(ctx); err != nil {
		return nil, err
	}
	return e.suggest.Query(prefix, limit)
}

// RebuildIndex rebuilds the retrieval indexes and the suggestion index, then
// reports index statistics.
func (e *Engine) RebuildIndex(ctx context.Context) (*models.IndexStats, error) {
	if err := e.manager.Rebuild(ctx); err != nil {
		return nil, err
	}
	snap, err := e.manager.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.suggest.Rebuild(e.registry.All(), snap.Docs); err != nil {
		e.logger.Warn("suggestion index rebuild failed", zap.Error(err))
	}
	return e.manager.Stats(ctx)
}

// MergeConcepts absorbs the secondary concept into the primary.
func (e *Engine) MergeConcepts(ctx context.Context, primaryID, secondaryID string) (*models.Concept, error) {
	merged, err := e.registry.Merge(ctx, primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	// Suggestion entries for the absorbed concept go away on next rebuild;
	// refresh eagerly so stale names drop out immediately.
	if snap, serr := e.manager.Current(ctx); serr == nil {
		if rerr := e.suggest.Rebuild(e.registry.All(), snap.Docs); rerr != nil {
			e.logger.Warn("suggestion index rebuild failed", zap.Error(rerr))
		}
	}
	return merged, nil
}

// ConceptGraph returns the concept subgraph at or above minStrength,
// optionally restricted to one category.
func (e *Engine) ConceptGraph(minStrength float64, category string) *models.Graph {
	return e.registry.Subgraph(minStrength, category)
}

// Stats reports current index statistics.
func (e *Engine) Stats(ctx context.Context) (*models.IndexStats, error) {
	return e.manager.Stats(ctx)
}
