// Package models defines core data structures for documents, concepts,
// queries, and search results.
package models

import "time"

// Document processing statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents a stored document with extracted content and metadata.
// A document becomes searchable only once its status is StatusCompleted and
// the index has been rebuilt.
type Document struct {
	ID           string     `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Summary      string     `json:"summary" db:"summary"`
	Content      string     `json:"content" db:"content"`
	FileType     string     `json:"file_type" db:"file_type"`
	SourcePath   string     `json:"source_path,omitempty" db:"source_path"`
	WordCount    int        `json:"word_count" db:"word_count"`
	PageCount    int        `json:"page_count" db:"page_count"`
	UploadDate   time.Time  `json:"upload_date" db:"upload_date"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	Status       string     `json:"status" db:"status"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}

// DocumentInput is the input for ingesting a document through the API.
type DocumentInput struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	FileType string `json:"file_type,omitempty"`
}

// IndexStats describes the state of a built index snapshot.
type IndexStats struct {
	Documents         int       `json:"documents"`
	VocabularySize    int       `json:"vocabulary_size"`
	EmbeddingCoverage float64   `json:"embedding_coverage"`
	BuiltAt           time.Time `json:"built_at"`
}
