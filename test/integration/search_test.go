// Package integration exercises the full pipeline against real storage.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/ingest"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/search"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/internal/suggest"
)

type stack struct {
	engine   *search.Engine
	pipeline *ingest.Pipeline
	registry *concept.Registry
	store    *storage.SQLiteStorage
}

func newStack(t *testing.T) *stack {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	logger := zap.NewNop()

	registry := concept.NewRegistry(store, cfg.Concept, logger)
	if err := registry.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(32)
	manager := index.NewManager(store, embedder, cfg, logger)
	suggestIndex := suggest.NewIndex()
	t.Cleanup(func() { _ = suggestIndex.Close() })

	engine := search.NewEngine(manager, registry, embedder, suggestIndex, cfg, logger)
	pipeline := ingest.NewPipeline(store, registry, engine, cfg, logger)
	return &stack{engine: engine, pipeline: pipeline, registry: registry, store: store}
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIntegration_IngestAndSearch(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	dir := t.TempDir()

	doc1, err := s.pipeline.Ingest(ctx, writeDoc(t, dir, "usability.txt",
		"A Field Guide to Usability Testing\n\n"+
			"We ran usability testing with eight participants and measured cognitive load per task. "+
			"Task success and error rates were recorded for every session."))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.pipeline.Ingest(ctx, writeDoc(t, dir, "memory.txt",
		"Working Memory and Interface Design\n\n"+
			"Cognitive load theory explains how working memory limits shape interface design decisions."))
	if err != nil {
		t.Fatal(err)
	}

	// Lexical retrieval finds the usability document first.
	resp, err := s.engine.Search(ctx, models.SearchQuery{Query: "usability testing", Mode: models.ModeLexical})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 || resp.Results[0].DocumentID != doc1.ID {
		t.Fatalf("lexical results = %+v", resp.Results)
	}

	// Hybrid never errors, even when some modes contribute nothing.
	resp, err = s.engine.Search(ctx, models.SearchQuery{Query: "cognitive load"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 {
		t.Fatal("hybrid search found nothing for a term present in both documents")
	}
	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("rank gap at %d: %+v", i, r)
		}
	}

	// The lexicon tagged both documents during ingest.
	if len(s.registry.All()) == 0 {
		t.Fatal("no concepts extracted during ingest")
	}
	resp, err = s.engine.Search(ctx, models.SearchQuery{Query: "cognitive load", Mode: models.ModeConcept})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 {
		t.Fatal("concept retrieval found no tagged documents")
	}
}

func TestIntegration_SuggestAfterIngest(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := s.pipeline.Ingest(ctx, writeDoc(t, dir, "eval.txt",
		"Heuristic Evaluation Notes\n\nWe applied heuristic evaluation and usability testing to the checkout flow.")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.engine.RebuildIndex(ctx); err != nil {
		t.Fatal(err)
	}

	sugs, err := s.engine.Suggest(ctx, "usab", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sugs) == 0 {
		t.Fatal("expected suggestions after ingest")
	}
	if sugs[0].Kind != models.SuggestionConcept {
		t.Errorf("first suggestion = %+v", sugs[0])
	}
}

func TestIntegration_DeleteRemovesFromResults(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	dir := t.TempDir()

	doc, err := s.pipeline.Ingest(ctx, writeDoc(t, dir, "doomed.txt",
		"Survey Design Basics\n\nGood survey design avoids leading questions and keeps participants engaged."))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := s.engine.Search(ctx, models.SearchQuery{Query: "survey design", Mode: models.ModeLexical})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 {
		t.Fatal("document not searchable after ingest")
	}

	if err := s.pipeline.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	resp, err = s.engine.Search(ctx, models.SearchQuery{Query: "survey design", Mode: models.ModeLexical})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range resp.Results {
		if r.DocumentID == doc.ID {
			t.Errorf("deleted document still in results: %+v", r)
		}
	}
}

func TestIntegration_ConceptGraphLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	a, err := s.registry.Upsert(ctx, "user interface", "interaction_design", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.registry.Upsert(ctx, "interface design", "interaction_design", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.registry.BuildRelations(ctx, a.ID, 0.3); err != nil {
		t.Fatal(err)
	}

	graph := s.engine.ConceptGraph(0, "")
	if len(graph.Nodes) != 2 {
		t.Fatalf("nodes = %+v", graph.Nodes)
	}
	if len(graph.Edges) == 0 {
		t.Fatal("same-category concepts with shared name tokens should relate")
	}

	merged, err := s.engine.MergeConcepts(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Frequency != 2 {
		t.Errorf("frequency = %d", merged.Frequency)
	}
	graph = s.engine.ConceptGraph(0, "")
	if len(graph.Nodes) != 1 {
		t.Errorf("nodes after merge = %+v", graph.Nodes)
	}
	for _, e := range graph.Edges {
		if e.Source == e.Target {
			t.Errorf("self edge after merge: %+v", e)
		}
	}
}
