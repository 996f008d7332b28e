package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/internal/suggest"
)

type testEnv struct {
	engine   *Engine
	store    *storage.SQLiteStorage
	registry *concept.Registry
}

func newTestEngine(t *testing.T, docs []*models.Document) *testEnv {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, doc := range docs {
		if err := store.CreateDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	logger := zap.NewNop()

	registry := concept.NewRegistry(store, cfg.Concept, logger)
	if err := registry.Load(ctx); err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(32)
	manager := index.NewManager(store, embedder, cfg, logger)
	suggestIndex := suggest.NewIndex()
	t.Cleanup(func() { _ = suggestIndex.Close() })

	engine := NewEngine(manager, registry, embedder, suggestIndex, cfg, logger)
	return &testEnv{engine: engine, store: store, registry: registry}
}

func testCorpus() []*models.Document {
	return []*models.Document{
		{ID: "d1", Title: "Usability Testing Guide", Summary: "How to run usability testing sessions.",
			Content: "usability testing with participants measures task success and error rates",
			FileType: "application/pdf", WordCount: 11, Status: models.StatusCompleted},
		{ID: "d2", Title: "Cognitive Load in Interfaces", Summary: "Working memory limits.",
			Content: "cognitive load theory explains working memory limits in interface design",
			FileType: "text/plain", WordCount: 11, Status: models.StatusCompleted},
		{ID: "d3", Title: "Unprocessed Draft", Content: "usability testing draft",
			FileType: "text/plain", Status: models.StatusPending},
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	_, err := env.engine.Search(context.Background(), models.SearchQuery{Query: "   "})
	if !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("want ErrEmptyQuery, got %v", err)
	}
}

func TestSearchInvalidMode(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	_, err := env.engine.Search(context.Background(), models.SearchQuery{Query: "usability", Mode: "psychic"})
	if !errors.Is(err, models.ErrInvalidMode) {
		t.Errorf("want ErrInvalidMode, got %v", err)
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	env := newTestEngine(t, nil)
	resp, err := env.engine.Search(context.Background(), models.SearchQuery{Query: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("empty corpus should return empty list: %+v", resp)
	}
}

func TestSearchLexicalExcludesPending(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	resp, err := env.engine.Search(context.Background(), models.SearchQuery{
		Query: "usability testing", Mode: models.ModeLexical,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Fatalf("got %d results: %+v", resp.Total, resp.Results)
	}
	if resp.Results[0].DocumentID != "d1" {
		t.Errorf("top = %s", resp.Results[0].DocumentID)
	}
	if resp.Results[0].Mode != models.ModeLexical {
		t.Errorf("mode = %s", resp.Results[0].Mode)
	}
}

func TestSearchHybridCombinesModes(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	if _, err := env.registry.RecordSightings(ctx, "d1", []models.Sighting{
		{Name: "usability testing", Category: "usability", Context: "ran usability testing", Confidence: 0.9},
	}); err != nil {
		t.Fatal(err)
	}

	resp, err := env.engine.Search(ctx, models.SearchQuery{Query: "usability testing", Mode: models.ModeHybrid})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 {
		t.Fatal("expected results")
	}
	var hit *models.SearchResult
	for _, r := range resp.Results {
		if r.DocumentID == "d1" {
			hit = r
		}
	}
	if hit == nil {
		t.Fatalf("d1 missing from results: %+v", resp.Results)
	}
	if len(hit.MatchedModes) < 2 {
		t.Errorf("expected multiple contributing modes, got %v", hit.MatchedModes)
	}
	if hit.MatchedConceptCount != 1 {
		t.Errorf("matched concept count = %d", hit.MatchedConceptCount)
	}
}

func TestSearchFileTypeFilter(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	resp, err := env.engine.Search(context.Background(), models.SearchQuery{
		Query: "usability testing", Mode: models.ModeLexical,
		Filters: models.Filters{FileType: "text/plain"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("pdf result leaked through text/plain filter: %+v", resp.Results)
	}
}

func TestSearchConceptIDFilter(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	if _, err := env.registry.RecordSightings(ctx, "d2", []models.Sighting{
		{Name: "cognitive load", Category: "cognitive_psychology", Confidence: 0.9},
	}); err != nil {
		t.Fatal(err)
	}
	concepts := env.registry.All()
	if len(concepts) != 1 {
		t.Fatal("setup failed")
	}

	resp, err := env.engine.Search(ctx, models.SearchQuery{
		Query: "interface", Mode: models.ModeLexical,
		Filters: models.Filters{ConceptIDs: []string{concepts[0].ID}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].DocumentID != "d2" {
		t.Errorf("results = %+v", resp.Results)
	}

	resp, err = env.engine.Search(ctx, models.SearchQuery{
		Query: "usability", Mode: models.ModeLexical,
		Filters: models.Filters{ConceptIDs: []string{concepts[0].ID}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("unlinked document leaked through concept filter: %+v", resp.Results)
	}
}

func TestSearchConceptMode(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	if _, err := env.registry.RecordSightings(ctx, "d1", []models.Sighting{
		{Name: "usability testing", Category: "usability", Confidence: 0.8},
	}); err != nil {
		t.Fatal(err)
	}
	// Pending d3 must not surface even though the concept text matches it.
	resp, err := env.engine.Search(ctx, models.SearchQuery{Query: "usability testing", Mode: models.ModeConcept})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].DocumentID != "d1" {
		t.Fatalf("results = %+v", resp.Results)
	}
	// One matched concept, one link with relevance 0.8: score 1*0.8/1.
	if resp.Results[0].Score != 0.8 {
		t.Errorf("score = %f", resp.Results[0].Score)
	}
}

func TestRebuildIndexAndSuggest(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	if _, err := env.registry.RecordSightings(ctx, "d1", []models.Sighting{
		{Name: "usability testing", Category: "usability", Confidence: 0.9},
	}); err != nil {
		t.Fatal(err)
	}
	stats, err := env.engine.RebuildIndex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 2 {
		t.Errorf("stats.Documents = %d", stats.Documents)
	}
	if stats.EmbeddingCoverage != 1.0 {
		t.Errorf("coverage = %f", stats.EmbeddingCoverage)
	}

	sugs, err := env.engine.Suggest(ctx, "usab", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sugs) == 0 {
		t.Fatal("expected suggestions after rebuild")
	}
	if sugs[0].Kind != models.SuggestionConcept || sugs[0].Text != "usability testing" {
		t.Errorf("first suggestion = %+v", sugs[0])
	}

	short, err := env.engine.Suggest(ctx, "u", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(short) != 0 {
		t.Errorf("short prefix should be empty, got %v", short)
	}
}

func TestMergeConceptsThroughEngine(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	a, err := env.registry.Upsert(ctx, "user interface", "interaction_design", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := env.registry.Upsert(ctx, "interface design", "interaction_design", "")
	if err != nil {
		t.Fatal(err)
	}

	merged, err := env.engine.MergeConcepts(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Frequency != 2 {
		t.Errorf("frequency = %d", merged.Frequency)
	}
	if _, err := env.engine.MergeConcepts(ctx, a.ID, b.ID); !errors.Is(err, concept.ErrConceptNotFound) {
		t.Errorf("want ErrConceptNotFound, got %v", err)
	}
}

func TestConceptGraphMinStrength(t *testing.T) {
	env := newTestEngine(t, testCorpus())
	ctx := context.Background()

	a, err := env.registry.Upsert(ctx, "user interface", "interaction_design", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.registry.Upsert(ctx, "interface design", "interaction_design", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := env.registry.BuildRelations(ctx, a.ID, 0.3); err != nil {
		t.Fatal(err)
	}

	graph := env.engine.ConceptGraph(0.5, "")
	for _, e := range graph.Edges {
		if e.Strength < 0.5 {
			t.Errorf("edge below minStrength: %+v", e)
		}
	}
}
