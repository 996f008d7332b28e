package models

import (
	"strings"
	"time"
)

// Filters narrows search results at the document level. All active filters
// are AND-combined; zero values mean "not set".
type Filters struct {
	// FileType matches documents whose file type contains this substring.
	FileType string `json:"file_type,omitempty"`
	// UploadedAfter/UploadedBefore bound the upload date (inclusive).
	UploadedAfter  *time.Time `json:"uploaded_after,omitempty"`
	UploadedBefore *time.Time `json:"uploaded_before,omitempty"`
	// ConceptIDs keeps documents linked to at least one of the listed concepts.
	// Membership is resolved by the concept registry, not here.
	ConceptIDs []string `json:"concept_ids,omitempty"`
	// MinWordCount/MaxWordCount bound the document word count (inclusive; 0 = unset).
	MinWordCount int `json:"min_word_count,omitempty"`
	MaxWordCount int `json:"max_word_count,omitempty"`
}

// Empty reports whether no filter is active.
func (f *Filters) Empty() bool {
	return f.FileType == "" && f.UploadedAfter == nil && f.UploadedBefore == nil &&
		len(f.ConceptIDs) == 0 && f.MinWordCount == 0 && f.MaxWordCount == 0
}

// Matches reports whether doc passes all document-level filters.
// The concept-id filter is excluded here; callers resolve it against the registry.
func (f *Filters) Matches(doc *Document) bool {
	if f.FileType != "" && !strings.Contains(doc.FileType, f.FileType) {
		return false
	}
	if f.UploadedAfter != nil && doc.UploadDate.Before(*f.UploadedAfter) {
		return false
	}
	if f.UploadedBefore != nil && doc.UploadDate.After(*f.UploadedBefore) {
		return false
	}
	if f.MinWordCount > 0 && doc.WordCount < f.MinWordCount {
		return false
	}
	if f.MaxWordCount > 0 && doc.WordCount > f.MaxWordCount {
		return false
	}
	return true
}
