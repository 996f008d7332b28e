package models

import "strings"

// Mode selects which retrieval signal(s) a search uses.
type Mode string

// Search modes.
const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeConcept  Mode = "concept"
	ModeHybrid   Mode = "hybrid"
)

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query   string  `json:"query"`
	Mode    Mode    `json:"mode,omitempty"`
	Filters Filters `json:"filters,omitempty"`
	Limit   int     `json:"limit,omitempty"`
}

// Validate normalizes the query and applies defaults. An empty or
// whitespace-only query returns ErrEmptyQuery; an unknown mode returns
// ErrInvalidMode. The mode defaults to hybrid when unset.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Mode == "" {
		q.Mode = ModeHybrid
	}
	switch q.Mode {
	case ModeLexical, ModeSemantic, ModeConcept, ModeHybrid:
	default:
		return ErrInvalidMode
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
