package config

import "fmt"

// PipelineVersion fingerprints every model and chunking parameter that affects
// the final answer. It is part of the exact-answer and semantic cache keys, so
// changing any component invalidates those caches without explicit deletion.
func (c *Config) PipelineVersion() string {
	return fmt.Sprintf("qa=%s|emb=%s|ner=%s|chunk=%d-%d",
		c.QA.Model, c.Embedding.Model, c.NER.Model,
		c.Chunking.ChunkSizeChars, c.Chunking.ChunkOverlapChars)
}
