package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// DocIDFromContent derives the document id from its content hash. Identical
// content always maps to the same id, which is what makes ingestion
// idempotent.
func DocIDFromContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:40]
}

// ContentSHA returns the full content hash recorded for deduplication.
func ContentSHA(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// PagesFromText splits raw text into pages on form feeds. Files without form
// feeds become a single page. Page numbers start at 1.
func PagesFromText(text, source string) []storage.Page {
	parts := strings.Split(text, "\f")
	pages := make([]storage.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, storage.Page{Page: i + 1, Text: part, Source: source})
	}
	return pages
}

// Ingest registers document content under its content-derived id and writes
// text.json. Re-ingesting identical content returns the existing record with
// created=false and leaves its artifacts untouched.
func (s *Store) Ingest(ctx context.Context, st *storage.Store, filename string, pages []storage.Page, content []byte) (*Document, bool, error) {
	if len(pages) == 0 {
		return nil, false, fmt.Errorf("document %s has no pages", filename)
	}

	sha := ContentSHA(content)
	if existing, err := s.GetBySHA(ctx, sha); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	docID := DocIDFromContent(content)
	if err := st.EnsureDocDir(docID); err != nil {
		return nil, false, err
	}
	dt := &storage.DocText{DocID: docID, Pages: pages}
	if err := st.WriteDocText(docID, dt); err != nil {
		return nil, false, err
	}

	doc := &Document{
		DocID:         docID,
		Filename:      filename,
		ContentSHA256: sha,
		SizeBytes:     int64(len(content)),
		Pages:         len(pages),
	}
	if err := s.Add(ctx, doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// IngestFile reads a text file and ingests it. Form feeds in the file mark
// page boundaries.
func (s *Store) IngestFile(ctx context.Context, st *storage.Store, path string) (*Document, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	pages := PagesFromText(string(content), "native")
	return s.Ingest(ctx, st, filepath.Base(path), pages, content)
}
