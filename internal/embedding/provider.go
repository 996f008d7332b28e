package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/config"
)

// NewFromConfig builds an embedder from the embedding config section.
// Provider "none" returns nil without error: semantic retrieval is then
// disabled and other modes keep working.
func NewFromConfig(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case "none", "":
		logger.Info("embedding disabled, semantic mode unavailable")
		return nil, nil
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	case "onnx":
		emb, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, semantic mode disabled", zap.Error(err))
			return nil, nil
		}
		logger.Info("ONNX embedder ready",
			zap.String("model", cfg.ModelPath),
			zap.Int("dimensions", cfg.Dimensions))
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
