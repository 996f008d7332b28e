// Package server provides the HTTP API for Lexigraph.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/ingest"
	"github.com/lexigraph/lexigraph/internal/search"
	"github.com/lexigraph/lexigraph/internal/storage"
)

// Server is the HTTP server for the Lexigraph API.
type Server struct {
	engine   *search.Engine
	pipeline *ingest.Pipeline
	registry *concept.Registry
	storage  storage.Storage
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	pipeline *ingest.Pipeline,
	registry *concept.Registry,
	store storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   engine,
		pipeline: pipeline,
		registry: registry,
		storage:  store,
		config:   cfg,
		logger:   logger,
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/search", s.handleSearchGet)
	r.Post("/api/v1/search", s.handleSearchPost)
	r.Get("/api/v1/suggest", s.handleSuggest)
	r.Post("/api/v1/reindex", s.handleReindex)

	r.Get("/api/v1/concepts", s.handleListConcepts)
	r.Get("/api/v1/concepts/graph", s.handleConceptGraph)
	r.Post("/api/v1/concepts/merge", s.handleMergeConcepts)
	r.Get("/api/v1/concepts/{id}", s.handleGetConcept)

	r.Post("/api/v1/documents", s.handleIngestDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)

	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
