// Package ingest turns dropped files into indexed, concept-tagged documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/extract"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/pkg/utils"
)

const (
	// maxTitleLineLength and minTitleLineLength bound which content line can
	// serve as a document title.
	minTitleLineLength = 10
	maxTitleLineLength = 100
	// titleCandidateLines is how many leading lines are considered.
	titleCandidateLines = 5
	// summarySentences and summaryMaxLength bound the extractive summary.
	summarySentences = 3
	summaryMaxLength = 500
)

// Reindexer triggers an index rebuild after the corpus changes.
type Reindexer interface {
	RebuildIndex(ctx context.Context) (*models.IndexStats, error)
}

// Pipeline processes files end to end: extraction, metadata heuristics,
// concept sighting, persistence, and reindex.
type Pipeline struct {
	store     storage.Storage
	registry  *concept.Registry
	extractor *extract.Extractor
	lexicon   *concept.LexiconExtractor
	reindexer Reindexer
	cfg       *config.Config
	logger    *zap.Logger
}

// NewPipeline wires an ingest pipeline.
func NewPipeline(store storage.Storage, registry *concept.Registry, reindexer Reindexer, cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		registry:  registry,
		extractor: extract.NewExtractor(),
		lexicon:   concept.NewLexiconExtractor(),
		reindexer: reindexer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest processes the file at path. An existing document for the same path
// is reprocessed under its original ID; otherwise a new document is created.
// The document ends in status completed, or failed with the error recorded.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*models.Document, error) {
	doc, err := p.store.GetDocumentByPath(ctx, path)
	switch {
	case err == nil:
		doc.Status = models.StatusProcessing
		doc.ErrorMessage = ""
		if err := p.store.UpdateDocument(ctx, doc); err != nil {
			return nil, err
		}
	case errors.Is(err, storage.ErrNotFound):
		doc = &models.Document{
			ID:         uuid.New().String(),
			SourcePath: path,
			Status:     models.StatusProcessing,
			UploadDate: time.Now(),
		}
		if err := p.store.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	res, err := p.extractor.Extract(path)
	if err != nil {
		p.fail(ctx, doc, err)
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	doc.Content = res.Text
	doc.FileType = res.FileType
	doc.PageCount = res.PageCount
	doc.Title = GenerateTitle(res.Text, filepath.Base(path))
	doc.Summary = GenerateSummary(res.Text, summaryMaxLength)
	doc.WordCount = utils.CountWords(res.Text)
	now := time.Now()
	doc.ProcessedAt = &now
	doc.Status = models.StatusCompleted
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := p.recordConcepts(ctx, doc); err != nil {
		// Concept tagging is best effort; the document itself is complete.
		p.logger.Warn("concept tagging failed",
			zap.String("document_id", doc.ID), zap.Error(err))
	}

	if _, err := p.reindexer.RebuildIndex(ctx); err != nil {
		p.logger.Warn("reindex after ingest failed",
			zap.String("document_id", doc.ID), zap.Error(err))
	}

	p.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("title", doc.Title),
		zap.String("file_type", doc.FileType),
		zap.Int("words", doc.WordCount))
	return doc, nil
}

// Delete removes a document, its concept links, and reindexes.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	if err := p.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if err := p.registry.DeleteDocumentLinks(ctx, documentID); err != nil {
		return err
	}
	if _, err := p.reindexer.RebuildIndex(ctx); err != nil {
		p.logger.Warn("reindex after delete failed",
			zap.String("document_id", documentID), zap.Error(err))
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, doc *models.Document, cause error) {
	doc.Status = models.StatusFailed
	doc.ErrorMessage = cause.Error()
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error("failed to record ingest failure",
			zap.String("document_id", doc.ID), zap.Error(err))
	}
}

// recordConcepts runs the lexicon over the content, records sightings, and
// builds graph relations for each sighted concept.
func (p *Pipeline) recordConcepts(ctx context.Context, doc *models.Document) error {
	sightings := p.lexicon.Extract(doc.Content)
	if len(sightings) == 0 {
		return nil
	}
	touched, err := p.registry.RecordSightings(ctx, doc.ID, sightings)
	if err != nil {
		return err
	}
	for _, c := range touched {
		if _, err := p.registry.BuildRelations(ctx, c.ID, p.cfg.Concept.RelationThreshold); err != nil {
			return err
		}
	}
	return nil
}

// GenerateTitle picks the first leading content line of reasonable length,
// falling back to the filename stem with underscores spaced and words
// capitalized.
func GenerateTitle(content, filename string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > titleCandidateLines {
		lines = lines[:titleCandidateLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > minTitleLineLength && len(line) < maxTitleLineLength {
			return line
		}
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	stem = strings.ReplaceAll(stem, "_", " ")
	return titleCase(stem)
}

// GenerateSummary returns the first sentences of content, truncated to
// maxLength.
func GenerateSummary(content string, maxLength int) string {
	if content == "" {
		return ""
	}
	sentences := strings.Split(content, ".")
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	summary := strings.TrimSpace(strings.Join(sentences, ". "))
	return utils.Truncate(summary, maxLength)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
