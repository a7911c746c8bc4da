package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCQA_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: DOCQA_CACHE_REDIS_URL -> cache.redis_url, etc.
	if err := k.Load(env.Provider("DOCQA_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "DOCQA_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Chunking.ChunkSizeChars < 1 {
		return fmt.Errorf("chunking.chunk_size_chars must be positive")
	}
	if c.Chunking.ChunkOverlapChars < 0 {
		return fmt.Errorf("chunking.chunk_overlap_chars must be non-negative")
	}
	if c.Chunking.ChunkOverlapChars >= c.Chunking.ChunkSizeChars {
		return fmt.Errorf("chunking.chunk_overlap_chars must be smaller than chunk_size_chars")
	}
	if len(c.Chunking.Separators) == 0 {
		return fmt.Errorf("chunking.separators must not be empty")
	}
	if c.Chunking.Separators[len(c.Chunking.Separators)-1] != "" {
		return fmt.Errorf("chunking.separators must end with the hard-cut separator \"\"")
	}
	if c.Chunking.MaxChunksPerDoc < 1 {
		return fmt.Errorf("chunking.max_chunks_per_doc must be positive")
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding.batch_size must be positive")
	}
	if c.Embedding.MaxChunksToEmbed < 1 {
		return fmt.Errorf("embedding.max_chunks_to_embed must be positive")
	}

	if c.Retrieval.MaxTopK < 1 {
		return fmt.Errorf("retrieval.max_top_k must be positive")
	}
	if c.Retrieval.DefaultTopK < 1 || c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k must be in [1, max_top_k]")
	}

	if c.QA.Model == "" {
		return fmt.Errorf("qa.model is required")
	}
	if c.QA.MinScore < 0 || c.QA.MinScore > 1 {
		return fmt.Errorf("qa.min_score must be in [0, 1]")
	}

	if c.Cache.SemanticThreshold < 0 || c.Cache.SemanticThreshold > 1 {
		return fmt.Errorf("cache.semantic_threshold must be in [0, 1]")
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache.ttl_seconds must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}

	return nil
}
