// Package ask answers questions over one or more indexed documents. It runs
// the full pipeline: layered cache lookups, query embedding, per-document
// retrieval, merge, answer generation and entity extraction.
package ask

import (
	"errors"

	"github.com/ziadkadry99/docqa/internal/ner"
	"github.com/ziadkadry99/docqa/internal/retrieval"
)

var (
	// ErrEmptyQuestion rejects questions that are empty after trimming.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoIndexedDocuments means the "all" scope resolved to nothing.
	ErrNoIndexedDocuments = errors.New("no indexed documents available")

	// ErrServiceUnavailable wraps failures of the embedding backend, which
	// the pipeline cannot answer without.
	ErrServiceUnavailable = errors.New("embedding service unavailable")
)

// Request is one question over a document scope. An empty DocIDs list means
// every indexed document; a zero TopK means the configured default.
type Request struct {
	Question string   `json:"question"`
	DocIDs   []string `json:"doc_ids,omitempty"`
	TopK     int      `json:"top_k,omitempty"`
}

// Response is the answer with its evidence. CacheHit names the cache layer
// that served it, empty for a freshly computed answer.
type Response struct {
	Answer     string                     `json:"answer"`
	Confidence *float64                   `json:"confidence"`
	Sources    []retrieval.RetrievedChunk `json:"sources"`
	Entities   []ner.Entity               `json:"entities"`
	CacheHit   string                     `json:"cache_hit,omitempty"`
}
