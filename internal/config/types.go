package config

// Config is the top-level docqa configuration, corresponding to .docqa.yml.
type Config struct {
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	QA        QAConfig        `yaml:"qa" koanf:"qa"`
	NER       NERConfig       `yaml:"ner" koanf:"ner"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

// ChunkingConfig controls how page text is split into chunks.
type ChunkingConfig struct {
	ChunkSizeChars    int      `yaml:"chunk_size_chars" koanf:"chunk_size_chars"`
	ChunkOverlapChars int      `yaml:"chunk_overlap_chars" koanf:"chunk_overlap_chars"`
	Separators        []string `yaml:"separators" koanf:"separators"`
	MaxChunksPerDoc   int      `yaml:"max_chunks_per_doc" koanf:"max_chunks_per_doc"`
}

// EmbeddingConfig controls the embedding model and batch behavior.
type EmbeddingConfig struct {
	Model            string `yaml:"model" koanf:"model"`
	BatchSize        int    `yaml:"batch_size" koanf:"batch_size"`
	Normalize        bool   `yaml:"normalize" koanf:"normalize"`
	MaxChunksToEmbed int    `yaml:"max_chunks_to_embed" koanf:"max_chunks_to_embed"`
}

// RetrievalConfig bounds vector search results.
type RetrievalConfig struct {
	DefaultTopK      int `yaml:"default_top_k" koanf:"default_top_k"`
	MaxTopK          int `yaml:"max_top_k" koanf:"max_top_k"`
	SnippetMaxChars  int `yaml:"snippet_max_chars" koanf:"snippet_max_chars"`
	MaxQuestionChars int `yaml:"max_question_chars" koanf:"max_question_chars"`
}

// QAConfig controls answer generation and the no-answer policy.
type QAConfig struct {
	Model           string  `yaml:"model" koanf:"model"`
	MaxContextChars int     `yaml:"max_context_chars" koanf:"max_context_chars"`
	MinScore        float64 `yaml:"min_score" koanf:"min_score"`
}

// NERConfig controls entity extraction on answers and sources.
type NERConfig struct {
	Enabled     bool   `yaml:"enabled" koanf:"enabled"`
	Model       string `yaml:"model" koanf:"model"`
	MaxEntities int    `yaml:"max_entities" koanf:"max_entities"`
}

// CacheConfig controls the layered response caches.
type CacheConfig struct {
	Enabled           bool    `yaml:"enabled" koanf:"enabled"`
	SemanticEnabled   bool    `yaml:"semantic_enabled" koanf:"semantic_enabled"`
	RedisURL          string  `yaml:"redis_url" koanf:"redis_url"`
	TTLSeconds        int     `yaml:"ttl_seconds" koanf:"ttl_seconds"`
	SemanticThreshold float64 `yaml:"semantic_threshold" koanf:"semantic_threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
