// Package registry tracks ingested documents in SQLite: identity, content
// hash for deduplication, and build status.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ziadkadry99/docqa/internal/db"
)

// Document build statuses.
const (
	StatusAdded    = "added"
	StatusChunked  = "chunked"
	StatusEmbedded = "embedded"
	StatusIndexed  = "indexed"
	StatusError    = "error"
)

// Document is a registered document. DocID is derived from the content hash,
// so re-adding identical content always resolves to the same record.
type Document struct {
	DocID         string    `json:"doc_id"`
	Filename      string    `json:"filename"`
	ContentSHA256 string    `json:"content_sha256"`
	SizeBytes     int64     `json:"size_bytes"`
	Pages         int       `json:"pages"`
	Status        string    `json:"status"`
	AddedAt       time.Time `json:"added_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store provides CRUD operations for the document registry.
type Store struct {
	db *db.DB
}

// NewStore creates a registry store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Add inserts a new document record.
func (s *Store) Add(ctx context.Context, doc *Document) error {
	if doc.Status == "" {
		doc.Status = StatusAdded
	}
	now := time.Now().UTC()
	doc.AddedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (doc_id, filename, content_sha256, size_bytes, pages, status, added_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.DocID, doc.Filename, doc.ContentSHA256, doc.SizeBytes, doc.Pages,
		doc.Status, doc.AddedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("adding document: %w", err)
	}
	return nil
}

const docColumns = `doc_id, filename, content_sha256, size_bytes, pages, status, added_at, updated_at`

func scanDoc(row interface{ Scan(...any) error }) (*Document, error) {
	d := &Document{}
	err := row.Scan(&d.DocID, &d.Filename, &d.ContentSHA256, &d.SizeBytes,
		&d.Pages, &d.Status, &d.AddedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Get retrieves a document by id, or nil when it is not registered.
func (s *Store) Get(ctx context.Context, docID string) (*Document, error) {
	d, err := scanDoc(s.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents WHERE doc_id = ?`, docID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return d, nil
}

// GetBySHA retrieves a document by content hash, or nil when no document has
// that content.
func (s *Store) GetBySHA(ctx context.Context, sha string) (*Document, error) {
	d, err := scanDoc(s.db.QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents WHERE content_sha256 = ?`, sha))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document by hash: %w", err)
	}
	return d, nil
}

// List returns all registered documents ordered by add time.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+docColumns+` FROM documents ORDER BY added_at, doc_id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// SetStatus updates a document's build status.
func (s *Store) SetStatus(ctx context.Context, docID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE doc_id = ?`,
		status, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document record.
func (s *Store) Delete(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}
