// Package embedding provides text embedding providers and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the embedding provider cannot serve requests.
// Callers treat this as a degraded capability: semantic retrieval is
// skipped, not failed.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder produces vector embeddings for text. Embeddings must be
// deterministic for identical input within one index epoch.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
