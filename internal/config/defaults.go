package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/lexigraph/data/lexigraph.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/lexigraph/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.SnippetLength == 0 {
		cfg.Embedding.SnippetLength = 1000
	}
	if cfg.Index.MaxVocabulary == 0 {
		cfg.Index.MaxVocabulary = 5000
	}
	if cfg.Index.MinDocumentCount == 0 {
		cfg.Index.MinDocumentCount = 1
	}
	if cfg.Index.MaxDocumentRatio == 0 {
		cfg.Index.MaxDocumentRatio = 0.8
	}
	if cfg.Index.RebuildWorkers == 0 {
		cfg.Index.RebuildWorkers = 4
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 20
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MinLexicalScore == 0 {
		cfg.Search.MinLexicalScore = 0.01
	}
	if cfg.Search.MinSemanticScore == 0 {
		cfg.Search.MinSemanticScore = 0.1
	}
	if cfg.Concept.RelationThreshold == 0 {
		cfg.Concept.RelationThreshold = 0.3
	}
	if cfg.Concept.MaxDescriptionLength == 0 {
		cfg.Concept.MaxDescriptionLength = 500
	}
	if cfg.Concept.MaxContextLength == 0 {
		cfg.Concept.MaxContextLength = 1000
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".pptx"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
