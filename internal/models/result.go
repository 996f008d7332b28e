package models

// Highlight is a text fragment around a matched term, with the match wrapped
// in <mark> tags.
type Highlight struct {
	Source string `json:"source"` // title, summary, content, or concept
	Text   string `json:"text"`
}

// SearchResult is a single ranked hit. Mode is the retrieval mode that
// produced the score; hybrid results additionally carry MatchedModes.
type SearchResult struct {
	DocumentID          string      `json:"document_id"`
	Score               float64     `json:"score"`
	Mode                Mode        `json:"mode"`
	Highlights          []Highlight `json:"highlights,omitempty"`
	MatchedModes        []Mode      `json:"matched_modes,omitempty"`
	MatchedConceptCount int         `json:"matched_concept_count,omitempty"`
	Rank                int         `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	Mode      Mode            `json:"mode"`
}

// Suggestion kinds.
const (
	SuggestionConcept = "concept"
	SuggestionTitle   = "title"
)

// Suggestion is a query completion candidate.
type Suggestion struct {
	Text       string `json:"text"`
	Kind       string `json:"kind"`
	Frequency  int    `json:"frequency,omitempty"`   // concept suggestions
	DocumentID string `json:"document_id,omitempty"` // title suggestions
}
