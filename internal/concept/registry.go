// Package concept maintains the deduplicated concept registry and the
// weighted relationship graph between concepts.
package concept

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/pkg/utils"
)

// ErrConceptNotFound indicates a concept id that does not exist (or was
// already absorbed by a merge).
var ErrConceptNotFound = errors.New("concept not found")

// Registry is the authoritative in-memory concept store with write-through
// persistence. All mutations serialize behind a single writer lock; merge
// rewrites relation endpoints, so finer locking buys nothing at this write
// volume.
type Registry struct {
	store  storage.ConceptStore
	cfg    config.ConceptConfig
	logger *zap.Logger

	mu        sync.RWMutex
	concepts  map[string]*models.Concept
	byName    map[string]string                        // normalized name -> id
	links     map[string]map[string]*models.DocumentLink // conceptID -> docID -> link
	relations map[string]*models.Relation
}

// NewRegistry creates an empty registry backed by store. Call Load to
// hydrate it from persisted state.
func NewRegistry(store storage.ConceptStore, cfg config.ConceptConfig, logger *zap.Logger) *Registry {
	return &Registry{
		store:     store,
		cfg:       cfg,
		logger:    logger,
		concepts:  make(map[string]*models.Concept),
		byName:    make(map[string]string),
		links:     make(map[string]map[string]*models.DocumentLink),
		relations: make(map[string]*models.Relation),
	}
}

// Load hydrates the registry from persisted concept data.
func (r *Registry) Load(ctx context.Context) error {
	data, err := r.store.LoadConceptData(ctx)
	if err != nil {
		return fmt.Errorf("failed to load concept data: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.concepts = make(map[string]*models.Concept, len(data.Concepts))
	r.byName = make(map[string]string, len(data.Concepts))
	r.links = make(map[string]map[string]*models.DocumentLink)
	r.relations = make(map[string]*models.Relation, len(data.Relations))

	for _, c := range data.Concepts {
		r.concepts[c.ID] = c
		r.byName[normalizeName(c.Name)] = c.ID
	}
	for _, link := range data.Links {
		if r.links[link.ConceptID] == nil {
			r.links[link.ConceptID] = make(map[string]*models.DocumentLink)
		}
		r.links[link.ConceptID][link.DocumentID] = link
	}
	for _, rel := range data.Relations {
		r.relations[rel.ID] = rel
	}

	r.logger.Info("concept registry loaded",
		zap.Int("concepts", len(r.concepts)),
		zap.Int("links", len(data.Links)),
		zap.Int("relations", len(r.relations)))
	return nil
}

// Upsert returns the concept with the given name, creating it on first
// sighting and incrementing its frequency on repeats. Name matching is
// case-insensitive.
func (r *Registry) Upsert(ctx context.Context, name, category, contextSnippet string) (*models.Concept, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("concept name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[normalizeName(name)]; ok {
		c := r.concepts[id]
		c.Frequency++
		if err := r.store.UpsertConcept(ctx, c); err != nil {
			c.Frequency--
			return nil, err
		}
		return c, nil
	}

	c := &models.Concept{
		ID:          uuid.New().String(),
		Name:        name,
		Description: utils.Truncate(contextSnippet, r.cfg.MaxDescriptionLength),
		Category:    category,
		Frequency:   1,
		CreatedAt:   time.Now(),
	}
	if err := r.store.UpsertConcept(ctx, c); err != nil {
		return nil, err
	}
	r.concepts[c.ID] = c
	r.byName[normalizeName(name)] = c.ID
	return c, nil
}

// LinkDocument links a concept to a document. The link is idempotent: an
// existing link for the pair is left untouched.
func (r *Registry) LinkDocument(ctx context.Context, conceptID, documentID string, relevance float64, contextSnippet string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.concepts[conceptID]; !ok {
		return fmt.Errorf("link document %s: %w", documentID, ErrConceptNotFound)
	}
	if _, exists := r.links[conceptID][documentID]; exists {
		return nil
	}

	link := &models.DocumentLink{
		DocumentID: documentID,
		ConceptID:  conceptID,
		Relevance:  relevance,
		Context:    utils.Truncate(contextSnippet, r.cfg.MaxContextLength),
	}
	if err := r.store.UpsertLink(ctx, link); err != nil {
		return err
	}
	if r.links[conceptID] == nil {
		r.links[conceptID] = make(map[string]*models.DocumentLink)
	}
	r.links[conceptID][documentID] = link
	return nil
}

// RecordSightings upserts each sighted concept and links it to the document,
// using sighting confidence as link relevance. It returns the concepts
// touched, in sighting order.
func (r *Registry) RecordSightings(ctx context.Context, documentID string, sightings []models.Sighting) ([]*models.Concept, error) {
	touched := make([]*models.Concept, 0, len(sightings))
	for _, s := range sightings {
		c, err := r.Upsert(ctx, s.Name, s.Category, s.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert concept %q: %w", s.Name, err)
		}
		if err := r.LinkDocument(ctx, c.ID, documentID, s.Confidence, s.Context); err != nil {
			return nil, fmt.Errorf("failed to link concept %q: %w", s.Name, err)
		}
		touched = append(touched, c)
	}
	return touched, nil
}

// Merge absorbs the secondary concept into the primary: frequencies sum,
// document links union (links already on primary win), relations re-point to
// primary, and the secondary is deleted. A post-merge pass collapses any
// relations that now cover the same pair, keeping the strongest.
func (r *Registry) Merge(ctx context.Context, primaryID, secondaryID string) (*models.Concept, error) {
	if primaryID == "" || secondaryID == "" {
		return nil, errors.New("merge requires both concept ids")
	}
	if primaryID == secondaryID {
		return nil, errors.New("cannot merge a concept into itself")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	primary, ok := r.concepts[primaryID]
	if !ok {
		return nil, fmt.Errorf("primary %s: %w", primaryID, ErrConceptNotFound)
	}
	secondary, ok := r.concepts[secondaryID]
	if !ok {
		return nil, fmt.Errorf("secondary %s: %w", secondaryID, ErrConceptNotFound)
	}

	primary.Frequency += secondary.Frequency
	if err := r.store.UpsertConcept(ctx, primary); err != nil {
		primary.Frequency -= secondary.Frequency
		return nil, err
	}

	for docID, link := range r.links[secondaryID] {
		if _, exists := r.links[primaryID][docID]; exists {
			continue
		}
		moved := &models.DocumentLink{
			DocumentID: docID,
			ConceptID:  primaryID,
			Relevance:  link.Relevance,
			Context:    link.Context,
		}
		if err := r.store.UpsertLink(ctx, moved); err != nil {
			return nil, err
		}
		if r.links[primaryID] == nil {
			r.links[primaryID] = make(map[string]*models.DocumentLink)
		}
		r.links[primaryID][docID] = moved
	}
	if err := r.store.DeleteLinksByConcept(ctx, secondaryID); err != nil {
		return nil, err
	}
	delete(r.links, secondaryID)

	for _, rel := range r.relations {
		changed := false
		if rel.Concept1ID == secondaryID {
			rel.Concept1ID = primaryID
			changed = true
		}
		if rel.Concept2ID == secondaryID {
			rel.Concept2ID = primaryID
			changed = true
		}
		if changed {
			if err := r.store.UpsertRelation(ctx, rel); err != nil {
				return nil, err
			}
		}
	}
	if err := r.dedupRelationsLocked(ctx); err != nil {
		return nil, err
	}

	if err := r.store.DeleteConcept(ctx, secondaryID); err != nil {
		return nil, err
	}
	delete(r.concepts, secondaryID)
	delete(r.byName, normalizeName(secondary.Name))

	r.logger.Info("concepts merged",
		zap.String("primary", primary.Name),
		zap.String("secondary", secondary.Name),
		zap.Int("frequency", primary.Frequency))
	return primary, nil
}

// dedupRelationsLocked collapses relations covering the same unordered pair
// to the one with max strength, and drops self-relations left by a merge.
func (r *Registry) dedupRelationsLocked(ctx context.Context) error {
	best := make(map[string]*models.Relation)
	var doomed []string
	for id, rel := range r.relations {
		if rel.Concept1ID == rel.Concept2ID {
			doomed = append(doomed, id)
			continue
		}
		key := pairKey(rel.Concept1ID, rel.Concept2ID)
		if prev, ok := best[key]; ok {
			if rel.Strength > prev.Strength {
				doomed = append(doomed, prev.ID)
				best[key] = rel
			} else {
				doomed = append(doomed, id)
			}
			continue
		}
		best[key] = rel
	}
	for _, id := range doomed {
		if err := r.store.DeleteRelation(ctx, id); err != nil {
			return err
		}
		delete(r.relations, id)
	}
	return nil
}

// Get returns the concept with the given id.
func (r *Registry) Get(id string) (*models.Concept, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.concepts[id]
	if !ok {
		return nil, fmt.Errorf("concept %s: %w", id, ErrConceptNotFound)
	}
	return c, nil
}

// All returns every concept sorted by frequency descending, then name.
func (r *Registry) All() []*models.Concept {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Concept, 0, len(r.concepts))
	for _, c := range r.concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Match returns concepts whose name or description overlaps the query: the
// concept name contains the query, the query contains the concept name, or
// the description contains the query, case-insensitively.
func (r *Registry) Match(query string) []*models.Concept {
	q := normalizeName(query)
	if q == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Concept
	for _, c := range r.concepts {
		name := normalizeName(c.Name)
		if strings.Contains(name, q) || strings.Contains(q, name) ||
			strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DocumentsFor returns the link per document for a concept.
func (r *Registry) DocumentsFor(conceptID string) []*models.DocumentLink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.DocumentLink, 0, len(r.links[conceptID]))
	for _, link := range r.links[conceptID] {
		out = append(out, link)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

// LinkedToAny reports whether the document is linked to at least one of the
// given concepts.
func (r *Registry) LinkedToAny(documentID string, conceptIDs []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cid := range conceptIDs {
		if _, ok := r.links[cid][documentID]; ok {
			return true
		}
	}
	return false
}

// DeleteDocumentLinks removes every link pointing at the document, used when
// a document is deleted.
func (r *Registry) DeleteDocumentLinks(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.DeleteLinksByDocument(ctx, documentID); err != nil {
		return err
	}
	for _, docLinks := range r.links {
		delete(docLinks, documentID)
	}
	return nil
}

// TopByPrefix returns concepts whose name starts with prefix, ordered by
// frequency descending, up to limit.
func (r *Registry) TopByPrefix(prefix string, limit int) []*models.Concept {
	p := normalizeName(prefix)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Concept
	for _, c := range r.concepts {
		if strings.HasPrefix(normalizeName(c.Name), p) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
