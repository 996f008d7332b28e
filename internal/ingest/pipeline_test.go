package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
)

type fakeReindexer struct {
	calls int
}

func (f *fakeReindexer) RebuildIndex(ctx context.Context) (*models.IndexStats, error) {
	f.calls++
	return &models.IndexStats{}, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *storage.SQLiteStorage, *concept.Registry, *fakeReindexer) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
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
	reindexer := &fakeReindexer{}
	return NewPipeline(store, registry, reindexer, cfg, logger), store, registry, reindexer
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestPlainTextDocument(t *testing.T) {
	p, _, registry, reindexer := newTestPipeline(t)
	ctx := context.Background()

	content := "A Field Guide to Usability Testing\n\n" +
		"We ran usability testing with eight participants. Cognitive load was measured per task. Results follow."
	path := writeFile(t, t.TempDir(), "guide.txt", content)

	doc, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.StatusCompleted {
		t.Errorf("status = %s", doc.Status)
	}
	if doc.Title != "A Field Guide to Usability Testing" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.FileType != "text/plain" {
		t.Errorf("file type = %s", doc.FileType)
	}
	if doc.WordCount == 0 || doc.ProcessedAt == nil {
		t.Errorf("metadata missing: %+v", doc)
	}
	if reindexer.calls != 1 {
		t.Errorf("reindex calls = %d", reindexer.calls)
	}

	// The lexicon should have sighted concepts and linked them.
	concepts := registry.All()
	if len(concepts) == 0 {
		t.Fatal("no concepts recorded")
	}
	found := false
	for _, c := range concepts {
		if c.Name == "usability testing" {
			found = true
			if !registry.LinkedToAny(doc.ID, []string{c.ID}) {
				t.Error("concept not linked to document")
			}
		}
	}
	if !found {
		t.Errorf("usability testing not sighted: %+v", concepts)
	}
}

func TestIngestReprocessKeepsID(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeFile(t, dir, "notes.txt", "Interview notes from the diary study sessions held in March.")
	first, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("Updated interview notes with new participant feedback included."), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("reprocess created new document: %s vs %s", first.ID, second.ID)
	}
	if second.Content == first.Content {
		t.Error("content not updated")
	}
}

func TestIngestFailureRecordsStatus(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "broken.pdf", "not a pdf at all")
	if _, err := p.Ingest(ctx, path); err == nil {
		t.Fatal("expected extraction error")
	}

	doc, err := store.GetDocumentByPath(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.StatusFailed {
		t.Errorf("status = %s", doc.Status)
	}
	if doc.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestDeleteRemovesLinks(t *testing.T) {
	p, store, registry, _ := newTestPipeline(t)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "doc.txt", "Heuristic evaluation of the checkout flow and its error prevention.")
	doc, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, doc.ID); err == nil {
		t.Error("document still present")
	}
	for _, c := range registry.All() {
		if registry.LinkedToAny(doc.ID, []string{c.ID}) {
			t.Errorf("stale link to deleted document via %s", c.Name)
		}
	}
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		want     string
	}{
		{"first good line", "Usability Field Notes\nrest of text", "x.txt", "Usability Field Notes"},
		{"skips short lines", "Hi\nA Proper Document Title Here\nbody", "x.txt", "A Proper Document Title Here"},
		{"falls back to filename", "", "usability_report_q3.txt", "Usability Report Q3"},
		{"ten chars is too short", "aaaaaaaaaa", "long_line_doc.txt", "Long Line Doc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.content, tt.filename); got != tt.want {
				t.Errorf("GenerateTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateTitleOnlyChecksLeadingLines(t *testing.T) {
	content := "a\nb\nc\nd\ne\nThis Title Appears Too Late To Count\n"
	if got := GenerateTitle(content, "deep_title.txt"); got != "Deep Title" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateSummary(t *testing.T) {
	content := "First sentence. Second sentence. Third sentence. Fourth sentence."
	got := GenerateSummary(content, 500)
	if got != "First sentence. Second sentence. Third sentence" {
		t.Errorf("summary = %q", got)
	}

	if GenerateSummary("", 500) != "" {
		t.Error("empty content should yield empty summary")
	}

	long := "word"
	for i := 0; i < 200; i++ {
		long += " lengthy segment of text"
	}
	truncated := GenerateSummary(long, 500)
	if len(truncated) > 503 { // 500 plus ellipsis
		t.Errorf("summary too long: %d", len(truncated))
	}
}
