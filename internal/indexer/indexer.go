package indexer

import (
	"errors"
	"fmt"
	"os"

	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/storage"
)

// IndexVersion tags retrieval cache keys; bump it when the index layout or
// scoring changes so stale cached retrievals stop matching.
const IndexVersion = "v1"

// ErrTooManyChunksToEmbed caps embedding cost for a single document.
var ErrTooManyChunksToEmbed = errors.New("document exceeds the embedding chunk limit")

// Build stage statuses.
const (
	StatusBuilt        = "built"
	StatusAlreadyBuilt = "already_built"
)

// Result reports what one build stage did for a document.
type Result struct {
	DocID  string `json:"doc_id"`
	Stage  string `json:"stage"`
	Status string `json:"status"`
	Chunks int    `json:"chunks,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Dim    int    `json:"dim,omitempty"`
}

// Indexer runs the offline build pipeline: chunk, embed, index. Each stage is
// idempotent and skips work when current artifacts already exist, unless force
// is set.
type Indexer struct {
	cfg *config.Config
	st  *storage.Store
	emb embeddings.Embedder
}

// New creates an Indexer over the given store and embedder.
func New(cfg *config.Config, st *storage.Store, emb embeddings.Embedder) *Indexer {
	return &Indexer{cfg: cfg, st: st, emb: emb}
}

// Store exposes the underlying artifact store.
func (ix *Indexer) Store() *storage.Store { return ix.st }

func readFile(path string, notFound error) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
