// Package main is the Lexigraph CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/ingest"
	"github.com/lexigraph/lexigraph/internal/models"
	"github.com/lexigraph/lexigraph/internal/search"
	"github.com/lexigraph/lexigraph/internal/server"
	"github.com/lexigraph/lexigraph/internal/storage"
	"github.com/lexigraph/lexigraph/internal/suggest"
	"github.com/lexigraph/lexigraph/internal/watcher"
	"github.com/lexigraph/lexigraph/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/lexigraph/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so development runs pick up the
// project config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "suggest":
		runSuggest()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "rebuild":
		runRebuild()
	case "concepts":
		runConcepts()
	case "graph":
		runGraph()
	case "merge":
		runMerge()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("lexigraph version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// components holds the initialized services behind the server.
type components struct {
	store    *storage.SQLiteStorage
	embedder embedding.Embedder
	registry *concept.Registry
	suggest  *suggest.Index
	engine   *search.Engine
	pipeline *ingest.Pipeline
}

func (c *components) Close() {
	if c.suggest != nil {
		_ = c.suggest.Close()
	}
	if c.embedder != nil {
		_ = c.embedder.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := concept.NewRegistry(store, cfg.Concept, logger)
	if err := registry.Load(context.Background()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load concepts: %w", err)
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	manager := index.NewManager(store, embedder, cfg, logger)
	suggestIndex := suggest.NewIndex()
	engine := search.NewEngine(manager, registry, embedder, suggestIndex, cfg, logger)
	pipeline := ingest.NewPipeline(store, registry, engine, cfg, logger)

	return &components{
		store:    store,
		embedder: embedder,
		registry: registry,
		suggest:  suggestIndex,
		engine:   engine,
		pipeline: pipeline,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode))

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	if _, err := comps.engine.RebuildIndex(context.Background()); err != nil {
		logger.Warn("initial index build failed", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := comps.pipeline.Ingest(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				doc, err := comps.store.GetDocumentByPath(context.Background(), path)
				if err != nil {
					return
				}
				if err := comps.pipeline.Delete(context.Background(), doc.ID); err != nil {
					logger.Warn("watch delete failed", zap.String("path", path), zap.Error(err))
				}
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(comps.engine, comps.pipeline, comps.registry, comps.store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	mode := fs.String("mode", "hybrid", "search mode: lexical, semantic, concept, or hybrid")
	limit := fs.Int("limit", 10, "number of results")
	fileType := fs.String("file-type", "", "filter by file type substring")
	outputJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: lexigraph search [flags] <query>")
		os.Exit(1)
	}

	query := models.SearchQuery{
		Query: queryStr,
		Mode:  models.Mode(*mode),
		Limit: *limit,
	}
	query.Filters.FileType = *fileType

	var resp models.SearchResponse
	if err := postJSON(*serverURL+"/api/v1/search", query, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if *outputJSON {
		printJSON(resp)
		return
	}
	fmt.Printf("%d result(s) for %q (%s, %dms)\n", resp.Total, resp.Query, resp.Mode, resp.QueryTime)
	for _, r := range resp.Results {
		fmt.Printf("%3d. %s  score=%.3f", r.Rank, r.DocumentID, r.Score)
		if len(r.MatchedModes) > 0 {
			modes := make([]string, len(r.MatchedModes))
			for i, m := range r.MatchedModes {
				modes[i] = string(m)
			}
			fmt.Printf("  modes=%s", strings.Join(modes, ","))
		}
		fmt.Println()
		for _, hl := range r.Highlights {
			fmt.Printf("     [%s] %s\n", hl.Source, hl.Text)
		}
	}
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	limit := fs.Int("limit", 10, "number of suggestions")
	_ = fs.Parse(os.Args[2:])

	prefix := buildQuery(fs.Args())
	if prefix == "" {
		fmt.Println("Usage: lexigraph suggest [flags] <prefix>")
		os.Exit(1)
	}

	var out struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	u := fmt.Sprintf("%s/api/v1/suggest?q=%s&limit=%d", *serverURL, url.QueryEscape(prefix), *limit)
	if err := getJSON(u, &out); err != nil {
		fmt.Fprintf(os.Stderr, "Suggest failed: %v\n", err)
		os.Exit(1)
	}
	for _, s := range out.Suggestions {
		if s.Kind == models.SuggestionConcept {
			fmt.Printf("%s  (%s, freq=%d)\n", s.Text, s.Kind, s.Frequency)
		} else {
			fmt.Printf("%s  (%s)\n", s.Text, s.Kind)
		}
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: lexigraph ingest [flags] <file>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid path: %v\n", err)
		os.Exit(1)
	}

	var doc models.Document
	if err := postJSON(*serverURL+"/api/v1/documents", map[string]string{"path": path}, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %s: %s (%s)\n", doc.ID, doc.Title, doc.Status)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: lexigraph delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents/"+url.PathEscape(docID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Delete failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	var stats models.IndexStats
	if err := postJSON(*serverURL+"/api/v1/reindex", nil, &stats); err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:           %d\n", stats.Documents)
	fmt.Printf("vocabulary_size:     %d\n", stats.VocabularySize)
	fmt.Printf("embedding_coverage:  %.2f\n", stats.EmbeddingCoverage)
}

func runConcepts() {
	fs := flag.NewFlagSet("concepts", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	var out struct {
		Concepts []*models.Concept `json:"concepts"`
		Total    int               `json:"total"`
	}
	if err := getJSON(*serverURL+"/api/v1/concepts", &out); err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	for _, c := range out.Concepts {
		fmt.Printf("%s  %-30s %-22s freq=%d\n", c.ID, c.Name, c.Category, c.Frequency)
	}
}

func runGraph() {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	minStrength := fs.Float64("min-strength", 0, "minimum edge strength")
	category := fs.String("category", "", "restrict to one category")
	_ = fs.Parse(os.Args[2:])

	u := fmt.Sprintf("%s/api/v1/concepts/graph?min_strength=%g&category=%s",
		*serverURL, *minStrength, url.QueryEscape(*category))
	var graph models.Graph
	if err := getJSON(u, &graph); err != nil {
		fmt.Fprintf(os.Stderr, "Graph failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(graph)
}

func runMerge() {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: lexigraph merge [flags] <primary-id> <secondary-id>")
		os.Exit(1)
	}
	body := map[string]string{"primary_id": fs.Arg(0), "secondary_id": fs.Arg(1)}
	var merged models.Concept
	if err := postJSON(*serverURL+"/api/v1/concepts/merge", body, &merged); err != nil {
		fmt.Fprintf(os.Stderr, "Merge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Merged into %s (%s, freq=%d)\n", merged.ID, merged.Name, merged.Frequency)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	var out struct {
		Documents           int64              `json:"documents"`
		SearchableDocuments int64              `json:"searchable_documents"`
		Concepts            int                `json:"concepts"`
		TopConcepts         []*models.Concept  `json:"top_concepts"`
		Index               *models.IndexStats `json:"index"`
	}
	if err := getJSON(*serverURL+"/api/v1/status", &out); err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if *outputJSON {
		printJSON(out)
		return
	}
	fmt.Printf("documents:            %d\n", out.Documents)
	fmt.Printf("searchable_documents: %d\n", out.SearchableDocuments)
	fmt.Printf("concepts:             %d\n", out.Concepts)
	if out.Index != nil {
		fmt.Printf("vocabulary_size:      %d\n", out.Index.VocabularySize)
		fmt.Printf("embedding_coverage:   %.2f\n", out.Index.EmbeddingCoverage)
	}
	if len(out.TopConcepts) > 0 {
		fmt.Println("\n# top concepts")
		for _, c := range out.TopConcepts {
			fmt.Printf("%-30s freq=%d\n", c.Name, c.Frequency)
		}
	}
}

func postJSON(u string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	resp, err := http.Post(u, "application/json", reader)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func getJSON(u string, out interface{}) error {
	resp, err := http.Get(u)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lexigraph - Hybrid document retrieval with a concept graph

Usage:
  lexigraph server [flags]               Start the HTTP server
  lexigraph search [flags] <query>       Search documents
  lexigraph suggest [flags] <prefix>     Query completions
  lexigraph ingest [flags] <file>        Ingest a document
  lexigraph delete [flags] <id>          Delete a document
  lexigraph rebuild [flags]              Rebuild the retrieval indexes
  lexigraph concepts [flags]             List concepts
  lexigraph graph [flags]                Print the concept graph
  lexigraph merge [flags] <a> <b>        Merge concept b into a
  lexigraph status [flags]               Show corpus and index status
  lexigraph version                      Show version
  lexigraph help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/lexigraph/config.yaml)
  --debug            Enable debug logging

Client Flags (all other commands):
  --server string    Server URL (default: http://localhost:8080)

Search Flags:
  --mode string        Search mode: lexical, semantic, concept, or hybrid (default: hybrid)
  --limit int          Number of results (default: 10)
  --file-type string   Filter by file type substring
  --json               Print the raw JSON response

Examples:
  lexigraph server
  lexigraph search usability testing methods
  lexigraph search --mode lexical "cognitive load"
  lexigraph suggest usab
  lexigraph ingest notes/heuristics.pdf
  lexigraph graph --min-strength 0.5
  lexigraph status`)
}
