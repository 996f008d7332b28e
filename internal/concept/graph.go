package concept

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/models"
)

const (
	// maxNodeSize caps the display size signal for very frequent concepts.
	maxNodeSize    = 20
	nodeSizeScale  = 2
	edgeWidthScale = 5.0
)

// Similarity scores how related two concepts are, in [0, 1]. It is a
// weighted sum of name overlap (Jaccard of whitespace tokens, weight 0.4),
// category equality (0.3), and document co-occurrence ratio (weight 0.3).
func Similarity(c1, c2 *models.Concept, docs1, docs2 []string) float64 {
	score := jaccard(nameTokens(c1.Name), nameTokens(c2.Name)) * 0.4

	if c1.Category == c2.Category {
		score += 0.3
	}

	if len(docs1) > 0 && len(docs2) > 0 {
		set := make(map[string]struct{}, len(docs1))
		for _, d := range docs1 {
			set[d] = struct{}{}
		}
		shared := 0
		for _, d := range docs2 {
			if _, ok := set[d]; ok {
				shared++
			}
		}
		denom := len(docs1)
		if len(docs2) > denom {
			denom = len(docs2)
		}
		score += float64(shared) / float64(denom) * 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ClassifyRelation picks a relation type for a concept pair. Rules apply in
// strict order, first match wins.
func ClassifyRelation(c1, c2 *models.Concept, similarity float64) models.RelationType {
	switch {
	case similarity > 0.8:
		return models.RelationSynonym
	case c1.Category == c2.Category:
		return models.RelationRelated
	case strings.Contains(strings.ToLower(c1.Name), "design") &&
		strings.Contains(strings.ToLower(c2.Name), "design"):
		return models.RelationRelated
	case similarity > 0.6:
		return models.RelationRelated
	default:
		return models.RelationWeak
	}
}

// BuildRelations compares the concept against every other concept and
// creates a relation for each pair scoring above threshold that has no
// existing relation. Relations are never re-scored once created.
func (r *Registry) BuildRelations(ctx context.Context, conceptID string, threshold float64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.concepts[conceptID]
	if !ok {
		return 0, fmt.Errorf("concept %s: %w", conceptID, ErrConceptNotFound)
	}

	covered := make(map[string]struct{}, len(r.relations))
	for _, rel := range r.relations {
		covered[pairKey(rel.Concept1ID, rel.Concept2ID)] = struct{}{}
	}

	created := 0
	for otherID, other := range r.concepts {
		if otherID == conceptID {
			continue
		}
		if _, ok := covered[pairKey(conceptID, otherID)]; ok {
			continue
		}
		sim := Similarity(c, other, r.docIDsLocked(conceptID), r.docIDsLocked(otherID))
		if sim <= threshold {
			continue
		}
		rel := &models.Relation{
			ID:         uuid.New().String(),
			Concept1ID: conceptID,
			Concept2ID: otherID,
			Type:       ClassifyRelation(c, other, sim),
			Strength:   sim,
			CreatedAt:  time.Now(),
		}
		if err := r.store.UpsertRelation(ctx, rel); err != nil {
			return created, err
		}
		r.relations[rel.ID] = rel
		covered[pairKey(conceptID, otherID)] = struct{}{}
		created++
	}
	if created > 0 {
		r.logger.Debug("relations created",
			zap.String("concept", c.Name), zap.Int("count", created))
	}
	return created, nil
}

// Subgraph returns nodes and the edges with strength at or above minStrength.
// A non-empty category restricts nodes to that category; edges survive only
// when both endpoints do.
func (r *Registry) Subgraph(minStrength float64, category string) *models.Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := &models.Graph{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}
	included := make(map[string]struct{})
	for id, c := range r.concepts {
		if category != "" && c.Category != category {
			continue
		}
		size := c.Frequency * nodeSizeScale
		if size > maxNodeSize {
			size = maxNodeSize
		}
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:        id,
			Name:      c.Name,
			Category:  c.Category,
			Frequency: c.Frequency,
			Size:      size,
		})
		included[id] = struct{}{}
	}
	sort.Slice(graph.Nodes, func(i, j int) bool { return graph.Nodes[i].Name < graph.Nodes[j].Name })

	for _, rel := range r.relations {
		if rel.Strength < minStrength {
			continue
		}
		if _, ok := included[rel.Concept1ID]; !ok {
			continue
		}
		if _, ok := included[rel.Concept2ID]; !ok {
			continue
		}
		graph.Edges = append(graph.Edges, models.GraphEdge{
			Source:   rel.Concept1ID,
			Target:   rel.Concept2ID,
			Type:     rel.Type,
			Strength: rel.Strength,
			Width:    rel.Strength * edgeWidthScale,
		})
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		if graph.Edges[i].Source != graph.Edges[j].Source {
			return graph.Edges[i].Source < graph.Edges[j].Source
		}
		return graph.Edges[i].Target < graph.Edges[j].Target
	})
	return graph
}

// Relations returns all relations, for diagnostics and tests.
func (r *Registry) Relations() []*models.Relation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Relation, 0, len(r.relations))
	for _, rel := range r.relations {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) docIDsLocked(conceptID string) []string {
	ids := make([]string, 0, len(r.links[conceptID]))
	for docID := range r.links[conceptID] {
		ids = append(ids, docID)
	}
	return ids
}

func nameTokens(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
