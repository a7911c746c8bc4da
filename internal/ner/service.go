package ner

import (
	"context"
	"log"
	"strings"

	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/retrieval"
)

// Service runs entity extraction over an answer and its source chunks,
// deduplicates the results and caps their number.
type Service struct {
	cfg config.NERConfig
	ext Extractor
}

// NewService creates a Service. A nil extractor disables extraction entirely.
func NewService(cfg config.NERConfig, ext Extractor) *Service {
	return &Service{cfg: cfg, ext: ext}
}

// ExtractAll extracts entities from the answer and every source snippet. Any
// extraction failure is logged and yields an empty list; answering never
// depends on this succeeding.
func (s *Service) ExtractAll(ctx context.Context, answer string, sources []retrieval.RetrievedChunk) []Entity {
	if !s.cfg.Enabled || s.ext == nil {
		return []Entity{}
	}

	var all []Entity

	fromAnswer, err := s.ext.Extract(ctx, answer)
	if err != nil {
		log.Printf("ner: answer extraction failed: %v", err)
		return []Entity{}
	}
	for _, e := range fromAnswer {
		e.Source = "answer"
		all = append(all, e)
	}

	for _, src := range sources {
		found, err := s.ext.Extract(ctx, src.TextSnippet)
		if err != nil {
			log.Printf("ner: chunk %s extraction failed: %v", src.ChunkID, err)
			return []Entity{}
		}
		docID := src.DocID
		chunkID := src.ChunkID
		for _, e := range found {
			e.Source = "chunk"
			e.DocID = &docID
			e.Page = src.Page
			e.ChunkID = &chunkID
			all = append(all, e)
		}
	}

	return s.dedupe(all)
}

// dedupe drops repeated entities and enforces the configured ceiling. The
// identity of an entity is its lowercased text, label, source and chunk, so
// the same name in two chunks is kept once per chunk.
func (s *Service) dedupe(entities []Entity) []Entity {
	type key struct {
		text    string
		label   string
		source  string
		chunkID string
	}

	seen := make(map[key]bool)
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		k := key{text: strings.ToLower(e.Text), label: e.Label, source: e.Source}
		if e.ChunkID != nil {
			k.chunkID = *e.ChunkID
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
		if len(out) >= s.cfg.MaxEntities {
			break
		}
	}
	return out
}
