package index

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/pkg/utils"
)

// Snapshot is an immutable view of the indexed corpus. Queries read one
// snapshot for their whole lifetime; rebuilds publish a new snapshot without
// touching old ones.
type Snapshot struct {
	// Docs holds completed documents sorted by ID.
	Docs    []*models.Document
	ByID    map[string]*models.Document
	Terms   *TermIndex   // nil when the vocabulary is empty
	Vectors *VectorIndex // nil when no embedder is configured
	BuiltAt time.Time
}

// Manager owns index rebuilds and serves the current snapshot. The first
// access builds lazily; subsequent rebuilds block behind a single mutex so
// concurrent triggers coalesce into sequential builds.
type Manager struct {
	store    storage.DocumentStore
	embedder embedding.Embedder
	cfg      *config.Config
	logger   *zap.Logger

	snapshot atomic.Pointer[Snapshot]
	buildMu  sync.Mutex
}

// NewManager creates an index manager. embedder may be nil, in which case
// snapshots carry no vector index.
func NewManager(store storage.DocumentStore, embedder embedding.Embedder, cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Current returns the active snapshot, building it on first use.
func (m *Manager) Current(ctx context.Context) (*Snapshot, error) {
	if snap := m.snapshot.Load(); snap != nil {
		return snap, nil
	}
	m.buildMu.Lock()
	defer m.buildMu.Unlock()
	if snap := m.snapshot.Load(); snap != nil {
		return snap, nil
	}
	return m.rebuildLocked(ctx)
}

// Rebuild builds a fresh snapshot from completed documents and swaps it in.
// Callers racing here serialize; each gets a build at least as fresh as its
// call time.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()
	_, err := m.rebuildLocked(ctx)
	return err
}

func (m *Manager) rebuildLocked(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	docs, err := m.store.ListDocumentsByStatus(ctx, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	snap := &Snapshot{
		Docs:    docs,
		ByID:    make(map[string]*models.Document, len(docs)),
		BuiltAt: time.Now(),
	}
	for _, doc := range docs {
		snap.ByID[doc.ID] = doc
	}

	terms, err := BuildTermIndex(docs, TermOptions{
		MaxVocabulary:    m.cfg.Index.MaxVocabulary,
		MinDocumentCount: m.cfg.Index.MinDocumentCount,
		MaxDocumentRatio: m.cfg.Index.MaxDocumentRatio,
	})
	switch {
	case err == nil:
		snap.Terms = terms
	case errors.Is(err, ErrEmptyVocabulary):
		m.logger.Info("term vocabulary empty, lexical mode will use direct matching",
			zap.Int("documents", len(docs)))
	default:
		return nil, err
	}

	if m.embedder != nil {
		snap.Vectors = m.embedDocuments(ctx, docs)
	}

	m.snapshot.Store(snap)
	m.logger.Info("index rebuilt",
		zap.Int("documents", len(docs)),
		zap.Int("vocabulary", vocabSize(snap.Terms)),
		zap.Int("embedded", vectorSize(snap.Vectors)),
		zap.Duration("elapsed", time.Since(start)))
	return snap, nil
}

// embedDocuments embeds document snippets in parallel. Per-document
// embedding failures degrade coverage instead of failing the rebuild.
func (m *Manager) embedDocuments(ctx context.Context, docs []*models.Document) *VectorIndex {
	workers := m.cfg.Index.RebuildWorkers
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		m.logger.Warn("embedding pool unavailable", zap.Error(err))
		return NewVectorIndex(nil)
	}
	defer pool.Release()

	results := make([][]float32, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		i, doc := i, doc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			snippet := utils.Truncate(doc.Content, m.cfg.Embedding.SnippetLength)
			emb, err := m.embedder.Embed(ctx, snippet)
			if err != nil {
				m.logger.Warn("embedding failed",
					zap.String("document_id", doc.ID), zap.Error(err))
				return
			}
			results[i] = emb
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			m.logger.Warn("embedding task rejected",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	wg.Wait()

	embeddings := make(map[string][]float32, len(docs))
	for i, doc := range docs {
		if results[i] != nil {
			embeddings[doc.ID] = results[i]
		}
	}
	return NewVectorIndex(embeddings)
}

// Stats reports the current snapshot's size and coverage.
func (m *Manager) Stats(ctx context.Context) (*models.IndexStats, error) {
	snap, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.IndexStats{
		Documents:      len(snap.Docs),
		VocabularySize: vocabSize(snap.Terms),
		BuiltAt:        snap.BuiltAt,
	}
	if snap.Vectors != nil {
		stats.EmbeddingCoverage = snap.Vectors.Coverage(len(snap.Docs))
	}
	return stats, nil
}

func vocabSize(t *TermIndex) int {
	if t == nil {
		return 0
	}
	return t.VocabularySize()
}

func vectorSize(v *VectorIndex) int {
	if v == nil {
		return 0
	}
	return v.Size()
}
