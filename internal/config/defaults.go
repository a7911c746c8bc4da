package config

// DefaultSeparators are tried in priority order when splitting page text.
// The empty string is the hard character cut and always succeeds.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Chunking: ChunkingConfig{
			ChunkSizeChars:    1000,
			ChunkOverlapChars: 150,
			Separators:        DefaultSeparators,
			MaxChunksPerDoc:   5000,
		},
		Embedding: EmbeddingConfig{
			Model:            "text-embedding-3-small",
			BatchSize:        64,
			Normalize:        true,
			MaxChunksToEmbed: 20000,
		},
		Retrieval: RetrievalConfig{
			DefaultTopK:      5,
			MaxTopK:          20,
			SnippetMaxChars:  400,
			MaxQuestionChars: 512,
		},
		QA: QAConfig{
			Model:           "gpt-4o-mini",
			MaxContextChars: 6000,
			MinScore:        0.30,
		},
		NER: NERConfig{
			Enabled:     true,
			Model:       "gpt-4o-mini",
			MaxEntities: 100,
		},
		Cache: CacheConfig{
			Enabled:           true,
			SemanticEnabled:   true,
			RedisURL:          "redis://localhost:6379/0",
			TTLSeconds:        3600,
			SemanticThreshold: 0.75,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}
