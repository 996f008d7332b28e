package index

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func newTestManager(t *testing.T, docs []*models.Document) *Manager {
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
	return NewManager(store, embedding.NewMockEmbedder(32), testConfig(), zap.NewNop())
}

func TestCurrentBuildsLazily(t *testing.T) {
	m := newTestManager(t, []*models.Document{
		{ID: "d1", Title: "Usability", Content: "usability testing sessions", Status: models.StatusCompleted},
		{ID: "d2", Title: "Design", Content: "interface design patterns", Status: models.StatusCompleted},
		{ID: "d3", Title: "Draft", Content: "still processing", Status: models.StatusProcessing},
	})

	snap, err := m.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Docs) != 2 {
		t.Fatalf("snapshot has %d docs, want 2 completed", len(snap.Docs))
	}
	if snap.Docs[0].ID != "d1" || snap.Docs[1].ID != "d2" {
		t.Errorf("docs not sorted by id: %s, %s", snap.Docs[0].ID, snap.Docs[1].ID)
	}
	if snap.ByID["d1"] == nil {
		t.Error("ByID missing d1")
	}
	if snap.Terms == nil {
		t.Error("expected term index for two-document corpus")
	}
	if snap.Vectors == nil || snap.Vectors.Size() != 2 {
		t.Errorf("vectors = %v", snap.Vectors)
	}

	again, err := m.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again != snap {
		t.Error("Current should reuse the built snapshot")
	}
}

func TestRebuildSwapsSnapshot(t *testing.T) {
	m := newTestManager(t, []*models.Document{
		{ID: "d1", Title: "One", Content: "first document content", Status: models.StatusCompleted},
	})
	ctx := context.Background()

	first, err := m.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.store.CreateDocument(ctx, &models.Document{
		ID: "d2", Title: "Two", Content: "second document content", Status: models.StatusCompleted,
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	second, err := m.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Error("rebuild did not swap the snapshot")
	}
	if len(second.Docs) != 2 {
		t.Errorf("got %d docs", len(second.Docs))
	}
	// The old snapshot stays readable for in-flight queries.
	if len(first.Docs) != 1 {
		t.Errorf("old snapshot mutated: %d docs", len(first.Docs))
	}
}

func TestEmptyCorpusSnapshot(t *testing.T) {
	m := newTestManager(t, nil)
	snap, err := m.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Docs) != 0 || snap.Terms != nil {
		t.Errorf("empty corpus snapshot: %+v", snap)
	}
}

func TestStats(t *testing.T) {
	m := newTestManager(t, []*models.Document{
		{ID: "d1", Title: "One", Content: "alpha beta gamma", Status: models.StatusCompleted},
		{ID: "d2", Title: "Two", Content: "delta epsilon zeta", Status: models.StatusCompleted},
	})
	stats, err := m.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 2 {
		t.Errorf("documents = %d", stats.Documents)
	}
	if stats.EmbeddingCoverage != 1.0 {
		t.Errorf("coverage = %f", stats.EmbeddingCoverage)
	}
	if stats.VocabularySize == 0 {
		t.Error("vocabulary should not be empty")
	}
}
