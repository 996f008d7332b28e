package models

import "time"

// Concept is a named, deduplicated topic entity. Name is unique
// case-insensitively; Frequency counts sightings and never decreases except
// through merge bookkeeping.
type Concept struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Frequency   int       `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentLink ties a concept to a document with a relevance score and the
// context the concept was sighted in. At most one link exists per
// (document, concept) pair.
type DocumentLink struct {
	DocumentID string  `json:"document_id"`
	ConceptID  string  `json:"concept_id"`
	Relevance  float64 `json:"relevance_score"`
	Context    string  `json:"context,omitempty"`
}

// RelationType classifies a concept relation.
type RelationType string

// Relation types, from strongest to weakest.
const (
	RelationSynonym RelationType = "synonym"
	RelationRelated RelationType = "related"
	RelationWeak    RelationType = "weak_relation"
)

// Relation is a typed, weighted edge between two concepts. At most one
// relation exists per unordered concept pair.
type Relation struct {
	ID         string       `json:"id"`
	Concept1ID string       `json:"concept1_id"`
	Concept2ID string       `json:"concept2_id"`
	Type       RelationType `json:"type"`
	Strength   float64      `json:"strength"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Sighting is a candidate concept mention supplied by the extraction
// pipeline for one document.
type Sighting struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Context    string  `json:"context,omitempty"`
	Confidence float64 `json:"confidence"`
}

// GraphNode is a concept node in a rendered subgraph. Size grows with
// frequency, capped for display.
type GraphNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Frequency int    `json:"frequency"`
	Size      int    `json:"size"`
}

// GraphEdge is a relation edge in a rendered subgraph.
type GraphEdge struct {
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Type     RelationType `json:"type"`
	Strength float64      `json:"strength"`
	Width    float64      `json:"width"`
}

// Graph is a filtered view of the concept relationship graph.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
