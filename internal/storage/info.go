package storage

import "time"

// EmbeddingsInfo is the authority for whether a previously built index is
// stale: it records the model, normalization and chunking version the
// embedding matrix was built with.
type EmbeddingsInfo struct {
	DocID           string    `json:"doc_id"`
	RowCount        int       `json:"row_count"`
	Dim             int       `json:"dim"`
	EmbeddingModel  string    `json:"embedding_model"`
	Normalize       bool      `json:"normalize"`
	BatchSize       int       `json:"batch_size"`
	ChunkingVersion string    `json:"chunking_version"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReadEmbeddingsInfo loads embeddings_info.json for a document.
func (s *Store) ReadEmbeddingsInfo(docID string) (*EmbeddingsInfo, error) {
	var info EmbeddingsInfo
	if err := ReadJSON(s.EmbeddingsInfoPath(docID), &info, ErrEmbeddingsInfoNotFound); err != nil {
		return nil, err
	}
	return &info, nil
}

// WriteEmbeddingsInfo persists embeddings_info.json atomically.
func (s *Store) WriteEmbeddingsInfo(docID string, info *EmbeddingsInfo) error {
	return WriteJSONAtomic(s.EmbeddingsInfoPath(docID), info)
}
