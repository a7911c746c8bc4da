// Package retrieval resolves vector search hits back to chunks and merges
// per-document result lists into a single ranked answer context.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"unicode/utf8"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/storage"
	"github.com/ziadkadry99/docqa/internal/vecindex"
)

// RetrievedChunk is one ranked hit with enough provenance to cite it.
type RetrievedChunk struct {
	DocID       string  `json:"doc_id"`
	ChunkID     string  `json:"chunk_id"`
	Score       float64 `json:"score"`
	Page        *int    `json:"page"`
	ChunkIndex  *int    `json:"chunk_index"`
	TextSnippet string  `json:"text_snippet"`
}

// Retriever runs per-document vector search over built indexes.
type Retriever struct {
	cfg *config.Config
	st  *storage.Store
	emb embeddings.Embedder
}

// New creates a Retriever over the given store and embedder.
func New(cfg *config.Config, st *storage.Store, emb embeddings.Embedder) *Retriever {
	return &Retriever{cfg: cfg, st: st, emb: emb}
}

// ClampTopK bounds a requested result count to [1, max_top_k].
func (r *Retriever) ClampTopK(topK int) int {
	if topK < 1 {
		return 1
	}
	if topK > r.cfg.Retrieval.MaxTopK {
		return r.cfg.Retrieval.MaxTopK
	}
	return topK
}

// EmbedQuery embeds a single query string.
func (r *Retriever) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := r.emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	return vecs[0], nil
}

// Search embeds the query and runs SearchWithVector against one document.
func (r *Retriever) Search(ctx context.Context, docID, query string, topK int) ([]RetrievedChunk, error) {
	vec, err := r.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.SearchWithVector(docID, vec, topK)
}

// SearchWithVector searches one document's index with a precomputed query
// vector. Rows that cannot be resolved to a chunk are skipped rather than
// failing the whole search, so a partially damaged metadata file degrades to
// fewer results.
func (r *Retriever) SearchWithVector(docID string, queryVec []float32, topK int) ([]RetrievedChunk, error) {
	if !storage.ValidDocID(docID) {
		return nil, storage.ErrInvalidDocID
	}
	topK = r.ClampTopK(topK)

	idx, _, err := vecindex.Load(r.st, docID)
	if err != nil {
		return nil, err
	}
	scores, rows, err := idx.Search(queryVec, topK)
	if err != nil {
		return nil, err
	}

	chunkIDs, err := indexer.RowChunkIDs(r.st, docID)
	if err != nil {
		return nil, err
	}
	texts, err := r.loadChunks(docID)
	if err != nil {
		return nil, err
	}

	snippetMax := r.cfg.Retrieval.SnippetMaxChars
	out := make([]RetrievedChunk, 0, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(chunkIDs) || chunkIDs[row] == "" {
			log.Printf("search doc_id=%s skipping unresolvable row %d", docID, row)
			continue
		}
		ch, ok := texts[chunkIDs[row]]
		if !ok {
			log.Printf("search doc_id=%s skipping row %d: chunk %s has no text", docID, row, chunkIDs[row])
			continue
		}

		snippet := ch.Text
		if len(snippet) > snippetMax {
			cut := snippetMax
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut]
		}
		page := ch.Page
		chunkIndex := ch.ChunkIndex
		out = append(out, RetrievedChunk{
			DocID:       docID,
			ChunkID:     ch.ChunkID,
			Score:       float64(scores[i]),
			Page:        &page,
			ChunkIndex:  &chunkIndex,
			TextSnippet: snippet,
		})
	}
	return out, nil
}

func (r *Retriever) loadChunks(docID string) (map[string]chunker.Chunk, error) {
	m := make(map[string]chunker.Chunk)
	err := chunker.Each(r.st, docID, func(ch chunker.Chunk) error {
		m[ch.ChunkID] = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Merge combines per-document result lists into one list sorted by descending
// score and truncated to topK. Ties keep input order, which is deterministic
// because scopes iterate documents in sorted order. Descending assumes scores
// are similarities, which holds for inner-product indexes (normalize: true,
// the default); an L2 index reports distances, where smaller is better, so a
// scope mixing in unnormalized documents gets its ranking inverted.
func Merge(lists [][]RetrievedChunk, topK int) []RetrievedChunk {
	var all []RetrievedChunk
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	if topK < len(all) {
		all = all[:topK]
	}
	return all
}
