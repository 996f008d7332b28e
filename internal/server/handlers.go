package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/storage"
)

const topConceptCount = 10

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.SearchQuery{
		Query: q.Get("q"),
		Mode:  models.Mode(q.Get("mode")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Limit = n
		}
	}
	query.Filters.FileType = q.Get("file_type")
	if v := q.Get("concept_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				query.Filters.ConceptIDs = append(query.Filters.ConceptIDs, id)
			}
		}
	}
	if ts, err := parseTimeParam(q.Get("uploaded_after")); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid uploaded_after")
		return
	} else if ts != nil {
		query.Filters.UploadedAfter = ts
	}
	if ts, err := parseTimeParam(q.Get("uploaded_before")); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid uploaded_before")
		return
	} else if ts != nil {
		query.Filters.UploadedBefore = ts
	}
	if v := q.Get("min_words"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Filters.MinWordCount = n
		}
	}
	if v := q.Get("max_words"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Filters.MaxWordCount = n
		}
	}
	s.runSearch(w, r, query)
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, query)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query models.SearchQuery) {
	s.logger.Debug("search request",
		zap.String("query", query.Query),
		zap.String("mode", string(query.Mode)),
		zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	suggestions, err := s.engine.Suggest(r.Context(), prefix, limit)
	if err != nil {
		s.logger.Error("suggest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.RebuildIndex(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListConcepts(w http.ResponseWriter, r *http.Request) {
	concepts := s.registry.All()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"concepts": concepts,
		"total":    len(concepts),
	})
}

func (s *Server) handleGetConcept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.registry.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "concept not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"concept":   c,
		"documents": s.registry.DocumentsFor(id),
	})
}

func (s *Server) handleConceptGraph(w http.ResponseWriter, r *http.Request) {
	minStrength := 0.0
	if v := r.URL.Query().Get("min_strength"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid min_strength")
			return
		}
		minStrength = f
	}
	category := r.URL.Query().Get("category")
	s.respondJSON(w, http.StatusOK, s.engine.ConceptGraph(minStrength, category))
}

type mergeRequest struct {
	PrimaryID   string `json:"primary_id"`
	SecondaryID string `json:"secondary_id"`
}

func (s *Server) handleMergeConcepts(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PrimaryID == "" || req.SecondaryID == "" {
		s.respondError(w, http.StatusBadRequest, "primary_id and secondary_id are required")
		return
	}
	s.logger.Debug("merge concepts request",
		zap.String("primary", req.PrimaryID),
		zap.String("secondary", req.SecondaryID))
	merged, err := s.engine.MergeConcepts(r.Context(), req.PrimaryID, req.SecondaryID)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, merged)
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("ingest request", zap.String("path", req.Path))
	doc, err := s.pipeline.Ingest(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("ingest failed", zap.String("path", req.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.pipeline.Delete(r.Context(), id); err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx, "")
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	searchable, err := s.storage.CountDocuments(ctx, models.StatusCompleted)
	if err != nil {
		s.logger.Error("status: count searchable failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		s.logger.Error("status: index stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	concepts := s.registry.All()
	top := concepts
	if len(top) > topConceptCount {
		top = top[:topConceptCount]
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":            docCount,
		"searchable_documents": searchable,
		"concepts":             len(concepts),
		"top_concepts":         top,
		"index":                stats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseTimeParam parses an RFC 3339 timestamp or a bare date. An empty value
// returns nil with no error.
func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unparseable time %q", v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, models.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, concept.ErrConceptNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
