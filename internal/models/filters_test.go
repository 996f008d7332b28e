package models

import (
	"testing"
	"time"
)

func TestFiltersMatches(t *testing.T) {
	uploaded := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	doc := &Document{
		ID:         "d1",
		FileType:   "application/pdf",
		WordCount:  1200,
		UploadDate: uploaded,
		Status:     StatusCompleted,
	}

	var none Filters
	if !none.Matches(doc) {
		t.Error("empty filters should match")
	}
	if !none.Empty() {
		t.Error("zero filters should report Empty")
	}

	if f := (Filters{FileType: "pdf"}); !f.Matches(doc) {
		t.Error("file type substring should match")
	}
	if f := (Filters{FileType: "word"}); f.Matches(doc) {
		t.Error("file type mismatch should fail")
	}

	after := uploaded.Add(24 * time.Hour)
	if f := (Filters{UploadedAfter: &after}); f.Matches(doc) {
		t.Error("document older than UploadedAfter should fail")
	}
	before := uploaded.Add(-24 * time.Hour)
	if f := (Filters{UploadedBefore: &before}); f.Matches(doc) {
		t.Error("document newer than UploadedBefore should fail")
	}

	if f := (Filters{MinWordCount: 2000}); f.Matches(doc) {
		t.Error("word count below min should fail")
	}
	if f := (Filters{MaxWordCount: 1000}); f.Matches(doc) {
		t.Error("word count above max should fail")
	}
	if f := (Filters{MinWordCount: 1000, MaxWordCount: 1500}); !f.Matches(doc) {
		t.Error("word count in range should match")
	}
}
