// Package storage defines persistence for documents and the concept journal.
package storage

import (
	"context"
	"errors"

	"github.com/lexigraph/lexigraph/internal/models"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// DocumentStore defines document persistence operations.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetDocumentByPath(ctx context.Context, sourcePath string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, id string) error
	// ListDocumentsByStatus returns documents with the given status, ordered
	// by id ascending so index builds and candidate scans are deterministic.
	ListDocumentsByStatus(ctx context.Context, status string) ([]*models.Document, error)
	CountDocuments(ctx context.Context, status string) (int64, error)
}

// ConceptData is the full persisted concept state, loaded at startup to
// warm the in-memory registry.
type ConceptData struct {
	Concepts  []*models.Concept
	Links     []*models.DocumentLink
	Relations []*models.Relation
}

// ConceptStore persists registry state. The in-memory registry is
// authoritative; these operations are write-through.
type ConceptStore interface {
	UpsertConcept(ctx context.Context, c *models.Concept) error
	DeleteConcept(ctx context.Context, id string) error
	UpsertLink(ctx context.Context, link *models.DocumentLink) error
	DeleteLinksByConcept(ctx context.Context, conceptID string) error
	DeleteLinksByDocument(ctx context.Context, documentID string) error
	UpsertRelation(ctx context.Context, rel *models.Relation) error
	DeleteRelation(ctx context.Context, id string) error
	LoadConceptData(ctx context.Context) (*ConceptData, error)
}

// Storage combines document and concept persistence.
type Storage interface {
	DocumentStore
	ConceptStore
	Close() error
}
