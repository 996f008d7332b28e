// Package search implements the retrieval modes and the fusion pipeline
// that merges them into one ranked result list.
package search

import "github.com/lexigraph/lexigraph/internal/models"

// modeResult is a pre-filter hit from a single retrieval mode.
type modeResult struct {
	documentID          string
	score               float64
	highlights          []models.Highlight
	matchedConceptCount int
}
