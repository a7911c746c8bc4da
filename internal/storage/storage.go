package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Artifact filenames inside processed/{doc_id}/.
const (
	TextFile           = "text.json"
	ChunksFile         = "chunks.jsonl"
	ChunkMapFile       = "chunk_map.json"
	EmbeddingsFile     = "embeddings.f32"
	EmbeddingsMetaFile = "embeddings_meta.jsonl"
	EmbeddingsInfoFile = "embeddings_info.json"
	IndexFile          = "index.bin"
	IndexMetaFile      = "index_meta.json"
)

// docIDRe matches content-derived document ids (sha256 hex prefixes).
var docIDRe = regexp.MustCompile(`^[a-f0-9]{16,64}$`)

// ValidDocID reports whether id has the expected lowercase-hex form.
func ValidDocID(id string) bool {
	return docIDRe.MatchString(id)
}

// Store resolves per-document artifact paths under a data directory.
//
// Layout:
//
//	{data_dir}/processed/{doc_id}/text.json
//	{data_dir}/processed/{doc_id}/chunks.jsonl
//	{data_dir}/processed/{doc_id}/chunk_map.json
//	{data_dir}/processed/{doc_id}/embeddings.f32
//	{data_dir}/processed/{doc_id}/embeddings_meta.jsonl
//	{data_dir}/processed/{doc_id}/embeddings_info.json
//	{data_dir}/processed/{doc_id}/index.bin
//	{data_dir}/processed/{doc_id}/index_meta.json
type Store struct {
	dataDir string
}

// New creates a Store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// DataDir returns the root data directory.
func (s *Store) DataDir() string { return s.dataDir }

// ProcessedRoot returns the directory holding all per-document artifacts.
func (s *Store) ProcessedRoot() string {
	return filepath.Join(s.dataDir, "processed")
}

// DocDir returns the artifact directory for one document.
func (s *Store) DocDir(docID string) string {
	return filepath.Join(s.ProcessedRoot(), docID)
}

func (s *Store) TextPath(docID string) string {
	return filepath.Join(s.DocDir(docID), TextFile)
}

func (s *Store) ChunksPath(docID string) string {
	return filepath.Join(s.DocDir(docID), ChunksFile)
}

func (s *Store) ChunkMapPath(docID string) string {
	return filepath.Join(s.DocDir(docID), ChunkMapFile)
}

func (s *Store) EmbeddingsPath(docID string) string {
	return filepath.Join(s.DocDir(docID), EmbeddingsFile)
}

func (s *Store) EmbeddingsMetaPath(docID string) string {
	return filepath.Join(s.DocDir(docID), EmbeddingsMetaFile)
}

func (s *Store) EmbeddingsInfoPath(docID string) string {
	return filepath.Join(s.DocDir(docID), EmbeddingsInfoFile)
}

func (s *Store) IndexPath(docID string) string {
	return filepath.Join(s.DocDir(docID), IndexFile)
}

func (s *Store) IndexMetaPath(docID string) string {
	return filepath.Join(s.DocDir(docID), IndexMetaFile)
}

// EnsureDocDir creates the artifact directory for a document.
func (s *Store) EnsureDocDir(docID string) error {
	if err := os.MkdirAll(s.DocDir(docID), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	return nil
}

// ListIndexedDocs returns the ids of all documents that have a built vector
// index, sorted for deterministic scope iteration.
func (s *Store) ListIndexedDocs() ([]string, error) {
	entries, err := os.ReadDir(s.ProcessedRoot())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing processed documents: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() || !ValidDocID(e.Name()) {
			continue
		}
		if _, err := os.Stat(s.IndexPath(e.Name())); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// HasIndex reports whether the document has a built vector index.
func (s *Store) HasIndex(docID string) bool {
	_, err := os.Stat(s.IndexPath(docID))
	return err == nil
}

// WriteFileAtomic writes data to path via a temporary file and rename, so a
// failed build never leaves a partially written artifact that a later
// already-built check could mistake for valid.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// WriteJSONAtomic marshals v with indentation and writes it atomically.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, data)
}

// ReadJSON reads path into v, translating a missing file into notFound and a
// parse failure into ErrInvalidFormat.
func ReadJSON(path string, v any, notFound error) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, filepath.Base(path), err)
	}
	return nil
}
