// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexigraph/lexigraph/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT,
		summary TEXT,
		content TEXT,
		file_type TEXT,
		source_path TEXT,
		word_count INTEGER DEFAULT 0,
		page_count INTEGER DEFAULT 0,
		upload_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	CREATE INDEX IF NOT EXISTS idx_documents_source_path ON documents(source_path);

	CREATE TABLE IF NOT EXISTS concepts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		category TEXT,
		frequency INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS document_concepts (
		document_id TEXT NOT NULL,
		concept_id TEXT NOT NULL,
		relevance_score REAL DEFAULT 0,
		context TEXT,
		PRIMARY KEY (document_id, concept_id)
	);

	CREATE INDEX IF NOT EXISTS idx_document_concepts_concept ON document_concepts(concept_id);

	CREATE TABLE IF NOT EXISTS concept_relations (
		id TEXT PRIMARY KEY,
		concept1_id TEXT NOT NULL,
		concept2_id TEXT NOT NULL,
		relation_type TEXT,
		strength REAL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document. UploadDate is set to now when zero.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now()
	}
	if doc.Status == "" {
		doc.Status = models.StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, summary, content, file_type, source_path,
		 word_count, page_count, upload_date, processed_at, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Summary, doc.Content, doc.FileType, doc.SourcePath,
		doc.WordCount, doc.PageCount, doc.UploadDate, doc.ProcessedAt, doc.Status, doc.ErrorMessage,
	)
	return err
}

const documentColumns = `id, title, summary, content, file_type, source_path,
	word_count, page_count, upload_date, processed_at, status, error_message`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var doc models.Document
	var processedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Title, &doc.Summary, &doc.Content, &doc.FileType,
		&doc.SourcePath, &doc.WordCount, &doc.PageCount, &doc.UploadDate,
		&processedAt, &doc.Status, &doc.ErrorMessage)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

// GetDocument returns a document by ID, or ErrNotFound.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, err
}

// GetDocumentByPath returns the document ingested from sourcePath, or ErrNotFound.
func (s *SQLiteStorage) GetDocumentByPath(ctx context.Context, sourcePath string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE source_path = ? LIMIT 1`, sourcePath)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document at %s: %w", sourcePath, ErrNotFound)
	}
	return doc, err
}

// UpdateDocument updates all mutable fields of a document.
func (s *SQLiteStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET title = ?, summary = ?, content = ?, file_type = ?,
		 source_path = ?, word_count = ?, page_count = ?, processed_at = ?,
		 status = ?, error_message = ? WHERE id = ?`,
		doc.Title, doc.Summary, doc.Content, doc.FileType, doc.SourcePath,
		doc.WordCount, doc.PageCount, doc.ProcessedAt, doc.Status, doc.ErrorMessage, doc.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, ErrNotFound)
	}
	return nil
}

// DeleteDocument removes a document and its concept links.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_concepts WHERE document_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDocumentsByStatus returns documents with the given status ordered by id.
func (s *SQLiteStorage) ListDocumentsByStatus(ctx context.Context, status string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of documents with the given status;
// an empty status counts all documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context, status string) (int64, error) {
	var count int64
	var err error
	if status == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE status = ?`, status).Scan(&count)
	}
	return count, err
}

// UpsertConcept inserts or replaces a concept row.
func (s *SQLiteStorage) UpsertConcept(ctx context.Context, c *models.Concept) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO concepts (id, name, description, category, frequency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
		 description = excluded.description, category = excluded.category,
		 frequency = excluded.frequency`,
		c.ID, c.Name, c.Description, c.Category, c.Frequency, c.CreatedAt,
	)
	return err
}

// DeleteConcept removes a concept row.
func (s *SQLiteStorage) DeleteConcept(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM concepts WHERE id = ?`, id)
	return err
}

// UpsertLink inserts or replaces a document-concept link.
func (s *SQLiteStorage) UpsertLink(ctx context.Context, link *models.DocumentLink) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_concepts (document_id, concept_id, relevance_score, context)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(document_id, concept_id) DO UPDATE SET
		 relevance_score = excluded.relevance_score, context = excluded.context`,
		link.DocumentID, link.ConceptID, link.Relevance, link.Context,
	)
	return err
}

// DeleteLinksByConcept removes all links referencing a concept.
func (s *SQLiteStorage) DeleteLinksByConcept(ctx context.Context, conceptID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_concepts WHERE concept_id = ?`, conceptID)
	return err
}

// DeleteLinksByDocument removes all links referencing a document.
func (s *SQLiteStorage) DeleteLinksByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_concepts WHERE document_id = ?`, documentID)
	return err
}

// UpsertRelation inserts or replaces a concept relation row.
func (s *SQLiteStorage) UpsertRelation(ctx context.Context, rel *models.Relation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO concept_relations (id, concept1_id, concept2_id, relation_type, strength, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET concept1_id = excluded.concept1_id,
		 concept2_id = excluded.concept2_id, relation_type = excluded.relation_type,
		 strength = excluded.strength`,
		rel.ID, rel.Concept1ID, rel.Concept2ID, string(rel.Type), rel.Strength, rel.CreatedAt,
	)
	return err
}

// DeleteRelation removes a relation row.
func (s *SQLiteStorage) DeleteRelation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM concept_relations WHERE id = ?`, id)
	return err
}

// LoadConceptData loads all persisted concept state for registry warm start.
func (s *SQLiteStorage) LoadConceptData(ctx context.Context) (*ConceptData, error) {
	data := &ConceptData{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category, frequency, created_at FROM concepts`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c models.Concept
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Frequency, &c.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		data.Concepts = append(data.Concepts, &c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT document_id, concept_id, relevance_score, context FROM document_concepts`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var l models.DocumentLink
		if err := rows.Scan(&l.DocumentID, &l.ConceptID, &l.Relevance, &l.Context); err != nil {
			_ = rows.Close()
			return nil, err
		}
		data.Links = append(data.Links, &l)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, concept1_id, concept2_id, relation_type, strength, created_at FROM concept_relations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r models.Relation
		var relType string
		if err := rows.Scan(&r.ID, &r.Concept1ID, &r.Concept2ID, &relType, &r.Strength, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Type = models.RelationType(relType)
		data.Relations = append(data.Relations, &r)
	}
	return data, rows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
