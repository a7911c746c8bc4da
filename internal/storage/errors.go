package storage

import "errors"

// Sentinel errors for missing or unreadable per-document artifacts. Each build
// stage has a distinct not-found error so callers can report which prerequisite
// step has not run yet.
var (
	ErrTextNotFound           = errors.New("text not extracted for document")
	ErrChunksNotFound         = errors.New("chunks not built for document")
	ErrChunkMapNotFound       = errors.New("chunk map not built for document")
	ErrEmbeddingsNotFound     = errors.New("embeddings not built for document")
	ErrEmbeddingsMetaNotFound = errors.New("embeddings row metadata not found for document")
	ErrEmbeddingsInfoNotFound = errors.New("embeddings info not found for document")
	ErrIndexNotFound          = errors.New("vector index not built for document")

	// ErrInvalidFormat marks a persisted artifact that exists but cannot be
	// parsed (malformed JSON, wrong matrix shape, bad header).
	ErrInvalidFormat = errors.New("invalid artifact format")

	// ErrInvalidDocID marks a document id that does not match the expected
	// lowercase-hex form.
	ErrInvalidDocID = errors.New("invalid doc_id format")
)
