// Package chunker splits normalized per-page document text into bounded,
// overlapping chunks with stable identifiers and character-level provenance.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/storage"
)

// ErrTooManyChunks is returned when a document produces more chunks than the
// configured ceiling. Protects downstream embedding cost.
var ErrTooManyChunks = errors.New("too many chunks for document")

// Chunk is a bounded span of a document's text with stable identity and
// provenance. Immutable once written; a rebuild replaces the whole set.
type Chunk struct {
	ChunkID    string   `json:"chunk_id"`
	DocID      string   `json:"doc_id"`
	Page       int      `json:"page"`
	ChunkIndex int      `json:"chunk_index"`
	Text       string   `json:"text"`
	CharStart  int      `json:"char_start"`
	CharEnd    int      `json:"char_end"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence"`
}

// ChunkRef is a chunk's provenance entry in the chunk map, without text.
type ChunkRef struct {
	ChunkID    string `json:"chunk_id"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}

// Params are the chunking parameters recorded in the chunk map.
type Params struct {
	ChunkSizeChars    int      `json:"chunk_size_chars"`
	ChunkOverlapChars int      `json:"chunk_overlap_chars"`
	Separators        []string `json:"separators"`
}

// ChunkMap is the per-document manifest: provenance for every chunk without
// having to load chunk text.
type ChunkMap struct {
	DocID     string     `json:"doc_id"`
	Chunking  Params     `json:"chunking"`
	CreatedAt time.Time  `json:"created_at"`
	Chunks    []ChunkRef `json:"chunks"`
}

// Chunker builds chunks according to a fixed parameter set.
type Chunker struct {
	cfg config.ChunkingConfig
}

// New creates a Chunker with the given parameters.
func New(cfg config.ChunkingConfig) *Chunker {
	return &Chunker{cfg: cfg}
}

// Version fingerprints the chunking parameters. Identical parameters always
// produce the same version; any change yields a new version, which invalidates
// every cache and index keyed by it without tracking dependents individually.
func Version(cfg config.ChunkingConfig) string {
	raw := fmt.Sprintf("%d:%d:%q", cfg.ChunkSizeChars, cfg.ChunkOverlapChars, cfg.Separators)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// Build reads the document's extracted per-page text and produces its chunks
// and chunk map. Rebuilding unchanged text with unchanged parameters yields
// identical chunk ids and count.
func (c *Chunker) Build(st *storage.Store, docID string) ([]Chunk, *ChunkMap, error) {
	dt, err := st.ReadDocText(docID)
	if err != nil {
		return nil, nil, err
	}

	cm := &ChunkMap{
		DocID: docID,
		Chunking: Params{
			ChunkSizeChars:    c.cfg.ChunkSizeChars,
			ChunkOverlapChars: c.cfg.ChunkOverlapChars,
			Separators:        c.cfg.Separators,
		},
		CreatedAt: time.Now().UTC(),
	}

	var all []Chunk
	counter := 0

	for _, page := range dt.Pages {
		if page.Page <= 0 {
			continue
		}
		pageText := Normalize(page.Text)
		source := page.Source
		if source == "" {
			source = "unknown"
		}

		base := recursiveSplit(pageText, c.cfg.ChunkSizeChars, c.cfg.Separators)
		overlapped := applyOverlap(base, c.cfg.ChunkOverlapChars)

		// Locate each chunk by forward search from a monotonic cursor.
		// Overlapped chunks are synthesized text and usually cannot be found
		// verbatim; those fall back to a cursor-relative estimate.
		cursor := 0
		for _, text := range overlapped {
			if text == "" {
				continue
			}

			var charStart, charEnd int
			found := -1
			if cursor <= len(pageText) {
				if i := strings.Index(pageText[cursor:], strings.TrimSpace(text)); i >= 0 {
					found = cursor + i
				}
			}
			if found == -1 {
				charStart = cursor
				charEnd = min(cursor+len(text), len(pageText))
			} else {
				charStart = found
				charEnd = found + len(text)
				cursor = charEnd
			}

			ch := Chunk{
				ChunkID:    stableChunkID(docID, page.Page, counter, text),
				DocID:      docID,
				Page:       page.Page,
				ChunkIndex: counter,
				Text:       text,
				CharStart:  charStart,
				CharEnd:    charEnd,
				Source:     source,
				Confidence: page.Confidence,
			}
			all = append(all, ch)
			cm.Chunks = append(cm.Chunks, ChunkRef{
				ChunkID:    ch.ChunkID,
				Page:       ch.Page,
				ChunkIndex: ch.ChunkIndex,
				CharStart:  ch.CharStart,
				CharEnd:    ch.CharEnd,
			})

			counter++
			if counter > c.cfg.MaxChunksPerDoc {
				return nil, nil, fmt.Errorf("%w: limit %d", ErrTooManyChunks, c.cfg.MaxChunksPerDoc)
			}
		}
	}

	return all, cm, nil
}

// stableChunkID derives a deterministic short id from the chunk's position and
// a slice of its text, so unchanged content keeps its id across rebuilds.
func stableChunkID(docID string, page, chunkIndex int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%d:%d:", docID, page, chunkIndex)
	if len(text) > 200 {
		text = text[:200]
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:24]
}
