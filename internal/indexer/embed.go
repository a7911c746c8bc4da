package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/storage"
	"github.com/ziadkadry99/docqa/internal/vecindex"
)

// RowMeta maps one matrix row back to its chunk. Lines in
// embeddings_meta.jsonl appear in embed order, so row numbers from index
// search resolve to chunk ids by line position.
type RowMeta struct {
	Row        int    `json:"row"`
	ChunkID    string `json:"chunk_id"`
	DocID      string `json:"doc_id"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// EmbedDocument embeds every chunk of the document in configured batches and
// writes the embedding matrix, per-row metadata and embeddings info. Chunks
// are streamed so a large document never holds all chunk text in memory at
// once.
func (ix *Indexer) EmbedDocument(ctx context.Context, docID string) (*storage.EmbeddingsInfo, error) {
	batchSize := ix.cfg.Embedding.BatchSize
	limit := ix.cfg.Embedding.MaxChunksToEmbed

	var (
		vecs    []float32
		dim     int
		rows    int
		metaBuf bytes.Buffer
		texts   []string
		metas   []RowMeta
	)
	metaEnc := json.NewEncoder(&metaBuf)

	flush := func() error {
		if len(texts) == 0 {
			return nil
		}
		out, err := ix.emb.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch at row %d: %w", rows, err)
		}
		if len(out) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(out), len(texts))
		}
		for i, v := range out {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim || dim == 0 {
				return fmt.Errorf("embedding at row %d has %d dimensions, want %d", rows, len(v), dim)
			}
			vecs = append(vecs, v...)
			metas[i].Row = rows
			if err := metaEnc.Encode(metas[i]); err != nil {
				return fmt.Errorf("encoding row metadata: %w", err)
			}
			rows++
		}
		texts = texts[:0]
		metas = metas[:0]
		return nil
	}

	count := 0
	err := chunker.Each(ix.st, docID, func(ch chunker.Chunk) error {
		count++
		if count > limit {
			return fmt.Errorf("%w: limit %d", ErrTooManyChunksToEmbed, limit)
		}
		texts = append(texts, ch.Text)
		metas = append(metas, RowMeta{
			ChunkID:    ch.ChunkID,
			DocID:      ch.DocID,
			Page:       ch.Page,
			ChunkIndex: ch.ChunkIndex,
		})
		if len(texts) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: no chunks to embed", storage.ErrChunksNotFound)
	}

	if err := ix.st.EnsureDocDir(docID); err != nil {
		return nil, err
	}
	if err := vecindex.WriteMatrix(ix.st.EmbeddingsPath(docID), rows, dim, vecs); err != nil {
		return nil, err
	}
	if err := storage.WriteFileAtomic(ix.st.EmbeddingsMetaPath(docID), metaBuf.Bytes()); err != nil {
		return nil, err
	}

	info := &storage.EmbeddingsInfo{
		DocID:           docID,
		RowCount:        rows,
		Dim:             dim,
		EmbeddingModel:  ix.emb.Name(),
		Normalize:       ix.cfg.Embedding.Normalize,
		BatchSize:       batchSize,
		ChunkingVersion: chunker.Version(ix.cfg.Chunking),
		CreatedAt:       time.Now().UTC(),
	}
	if err := ix.st.WriteEmbeddingsInfo(docID, info); err != nil {
		return nil, err
	}
	return info, nil
}

// ReadRowMeta loads embeddings_meta.jsonl as a row-indexed chunk id list.
// Rows are gap tolerant: a row never mentioned in the file resolves to an
// empty chunk id, which retrieval skips.
func ReadRowMeta(st *storage.Store, docID string) ([]RowMeta, error) {
	var out []RowMeta
	err := eachRowMeta(st, docID, func(rm RowMeta) {
		out = append(out, rm)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RowChunkIDs returns chunk ids positioned by row number. Out-of-order or
// sparse row numbers leave empty slots rather than failing the lookup.
func RowChunkIDs(st *storage.Store, docID string) ([]string, error) {
	var ids []string
	err := eachRowMeta(st, docID, func(rm RowMeta) {
		if rm.Row < 0 {
			return
		}
		for len(ids) <= rm.Row {
			ids = append(ids, "")
		}
		ids[rm.Row] = rm.ChunkID
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func eachRowMeta(st *storage.Store, docID string, fn func(RowMeta)) error {
	data, err := readFile(st.EmbeddingsMetaPath(docID), storage.ErrEmbeddingsMetaNotFound)
	if err != nil {
		return err
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rm RowMeta
		if err := json.Unmarshal(line, &rm); err != nil {
			return fmt.Errorf("%w: embeddings_meta.jsonl: %v", storage.ErrInvalidFormat, err)
		}
		fn(rm)
	}
	return nil
}
