// Package ner extracts named entities from answers and their supporting
// chunks. Entity extraction is decorative: it never fails a request.
package ner

import "context"

// Entity is a labeled span found in the answer or in a source chunk. Source
// is "answer" or "chunk"; chunk entities carry provenance.
type Entity struct {
	Text    string  `json:"text"`
	Label   string  `json:"label"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Source  string  `json:"source"`
	DocID   *string `json:"doc_id,omitempty"`
	Page    *int    `json:"page,omitempty"`
	ChunkID *string `json:"chunk_id,omitempty"`
}

// Extractor finds entities in a single text. Returned entities carry Text,
// Label, Start and End; the caller fills in source and provenance.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
}
