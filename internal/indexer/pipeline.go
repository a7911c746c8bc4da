package indexer

import (
	"context"
	"log"
	"os"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/storage"
	"github.com/ziadkadry99/docqa/internal/vecindex"
)

// Chunk runs the chunking stage. When current chunk artifacts already exist
// and force is false, the stage reports already_built without touching them.
func (ix *Indexer) Chunk(docID string, force bool) (*Result, error) {
	if !storage.ValidDocID(docID) {
		return nil, storage.ErrInvalidDocID
	}

	if !force && ix.chunksCurrent(docID) {
		n, err := chunker.Count(ix.st, docID)
		if err != nil {
			return nil, err
		}
		return &Result{DocID: docID, Stage: "chunk", Status: StatusAlreadyBuilt, Chunks: n}, nil
	}

	chunks, cm, err := chunker.New(ix.cfg.Chunking).Build(ix.st, docID)
	if err != nil {
		return nil, err
	}
	if err := chunker.Save(ix.st, docID, chunks, cm); err != nil {
		return nil, err
	}
	log.Printf("chunked doc_id=%s chunks=%d", docID, len(chunks))
	return &Result{DocID: docID, Stage: "chunk", Status: StatusBuilt, Chunks: len(chunks)}, nil
}

// Embed runs the embedding stage. Existing embeddings are reused only when
// they were built with the current model, normalization and chunking version.
func (ix *Indexer) Embed(ctx context.Context, docID string, force bool) (*Result, error) {
	if !storage.ValidDocID(docID) {
		return nil, storage.ErrInvalidDocID
	}

	if !force {
		if info, ok := ix.embeddingsCurrent(docID); ok {
			return &Result{DocID: docID, Stage: "embed", Status: StatusAlreadyBuilt, Rows: info.RowCount, Dim: info.Dim}, nil
		}
	}

	info, err := ix.EmbedDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	log.Printf("embedded doc_id=%s rows=%d dim=%d model=%s", docID, info.RowCount, info.Dim, info.EmbeddingModel)
	return &Result{DocID: docID, Stage: "embed", Status: StatusBuilt, Rows: info.RowCount, Dim: info.Dim}, nil
}

// Index runs the index build stage over the embedding matrix.
func (ix *Indexer) Index(docID string, force bool) (*Result, error) {
	if !storage.ValidDocID(docID) {
		return nil, storage.ErrInvalidDocID
	}

	if !force {
		if meta, ok := ix.indexCurrent(docID); ok {
			return &Result{DocID: docID, Stage: "index", Status: StatusAlreadyBuilt, Rows: meta.RowCount, Dim: meta.Dim}, nil
		}
	}

	meta, err := vecindex.Build(ix.st, docID)
	if err != nil {
		return nil, err
	}
	log.Printf("indexed doc_id=%s rows=%d dim=%d type=%s", docID, meta.RowCount, meta.Dim, meta.IndexType)
	return &Result{DocID: docID, Stage: "index", Status: StatusBuilt, Rows: meta.RowCount, Dim: meta.Dim}, nil
}

// BuildAll runs chunk, embed and index in order for one document.
func (ix *Indexer) BuildAll(ctx context.Context, docID string, force bool) ([]*Result, error) {
	var results []*Result

	res, err := ix.Chunk(docID, force)
	if err != nil {
		return results, err
	}
	results = append(results, res)

	// A fresh chunking invalidates downstream stages even without force.
	downstreamForce := force || res.Status == StatusBuilt

	res, err = ix.Embed(ctx, docID, downstreamForce)
	if err != nil {
		return results, err
	}
	results = append(results, res)
	downstreamForce = downstreamForce || res.Status == StatusBuilt

	res, err = ix.Index(docID, downstreamForce)
	if err != nil {
		return results, err
	}
	results = append(results, res)

	return results, nil
}

// chunksCurrent reports whether chunk artifacts exist and were built with the
// current chunking parameters.
func (ix *Indexer) chunksCurrent(docID string) bool {
	if !chunker.Built(ix.st, docID) {
		return false
	}
	cm, err := chunker.LoadMap(ix.st, docID)
	if err != nil {
		return false
	}
	return chunker.Version(config.ChunkingConfig{
		ChunkSizeChars:    cm.Chunking.ChunkSizeChars,
		ChunkOverlapChars: cm.Chunking.ChunkOverlapChars,
		Separators:        cm.Chunking.Separators,
	}) == chunker.Version(ix.cfg.Chunking)
}

// embeddingsCurrent reports whether a usable embedding matrix exists for the
// current model, normalization and chunking version.
func (ix *Indexer) embeddingsCurrent(docID string) (*storage.EmbeddingsInfo, bool) {
	info, err := ix.st.ReadEmbeddingsInfo(docID)
	if err != nil {
		return nil, false
	}
	if _, err := os.Stat(ix.st.EmbeddingsPath(docID)); err != nil {
		return nil, false
	}
	if _, err := os.Stat(ix.st.EmbeddingsMetaPath(docID)); err != nil {
		return nil, false
	}
	ok := info.EmbeddingModel == ix.emb.Name() &&
		info.Normalize == ix.cfg.Embedding.Normalize &&
		info.ChunkingVersion == chunker.Version(ix.cfg.Chunking)
	return info, ok
}

// indexCurrent reports whether a built index matches the current embeddings.
func (ix *Indexer) indexCurrent(docID string) (*vecindex.Meta, bool) {
	if !ix.st.HasIndex(docID) {
		return nil, false
	}
	meta, err := vecindex.ReadMeta(ix.st, docID)
	if err != nil {
		return nil, false
	}
	info, ok := ix.embeddingsCurrent(docID)
	if !ok {
		return nil, false
	}
	match := meta.EmbeddingModel == info.EmbeddingModel &&
		meta.Normalize == info.Normalize &&
		meta.ChunkingVersion == info.ChunkingVersion &&
		meta.RowCount == info.RowCount &&
		meta.Dim == info.Dim
	return meta, match
}
