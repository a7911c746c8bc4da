package vecindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ziadkadry99/docqa/internal/storage"
)

// Meta is persisted next to the index so search can trust the stored metric
// and staleness checks can compare model and chunking versions.
type Meta struct {
	DocID           string    `json:"doc_id"`
	RowCount        int       `json:"row_count"`
	Dim             int       `json:"dim"`
	IndexType       Kind      `json:"index_type"`
	EmbeddingModel  string    `json:"embedding_model"`
	Normalize       bool      `json:"normalize"`
	ChunkingVersion string    `json:"chunking_version"`
	CreatedAt       time.Time `json:"created_at"`
}

var indexMagic = [4]byte{'D', 'Q', 'I', 'X'}

const indexVersion = 1

// Build constructs the flat index for a document from its embedding matrix
// and persists index.bin plus index_meta.json. The metric follows the
// normalize flag recorded at embedding time: unit vectors get inner product,
// raw vectors get L2.
func Build(st *storage.Store, docID string) (*Meta, error) {
	info, err := st.ReadEmbeddingsInfo(docID)
	if err != nil {
		return nil, err
	}

	rows, dim, vecs, err := ReadMatrix(st.EmbeddingsPath(docID), storage.ErrEmbeddingsNotFound)
	if err != nil {
		return nil, err
	}
	if dim <= 0 || rows == 0 {
		return nil, fmt.Errorf("%w: embedding matrix for %s is empty", storage.ErrInvalidFormat, docID)
	}
	if info.RowCount != rows || info.Dim != dim {
		return nil, fmt.Errorf("%w: embeddings info says %dx%d, matrix is %dx%d",
			storage.ErrInvalidFormat, info.RowCount, info.Dim, rows, dim)
	}

	kind := KindFlatL2
	if info.Normalize {
		kind = KindFlatIP
	}

	if err := writeIndex(st.IndexPath(docID), kind, rows, dim, vecs); err != nil {
		return nil, err
	}

	meta := &Meta{
		DocID:           docID,
		RowCount:        rows,
		Dim:             dim,
		IndexType:       kind,
		EmbeddingModel:  info.EmbeddingModel,
		Normalize:       info.Normalize,
		ChunkingVersion: info.ChunkingVersion,
		CreatedAt:       time.Now().UTC(),
	}
	if err := storage.WriteJSONAtomic(st.IndexMetaPath(docID), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Load reads a previously built index and its metadata.
func Load(st *storage.Store, docID string) (*Flat, *Meta, error) {
	var meta Meta
	if err := storage.ReadJSON(st.IndexMetaPath(docID), &meta, storage.ErrIndexNotFound); err != nil {
		return nil, nil, err
	}

	kind, rows, dim, vecs, err := readIndex(st.IndexPath(docID))
	if err != nil {
		return nil, nil, err
	}
	if kind != meta.IndexType || rows != meta.RowCount || dim != meta.Dim {
		return nil, nil, fmt.Errorf("%w: index_meta.json disagrees with index.bin for %s",
			storage.ErrInvalidFormat, docID)
	}

	flat, err := NewFlat(kind, dim, vecs)
	if err != nil {
		return nil, nil, err
	}
	return flat, &meta, nil
}

// ReadMeta loads index_meta.json without loading the vectors.
func ReadMeta(st *storage.Store, docID string) (*Meta, error) {
	var meta Meta
	if err := storage.ReadJSON(st.IndexMetaPath(docID), &meta, storage.ErrIndexNotFound); err != nil {
		return nil, err
	}
	return &meta, nil
}

func writeIndex(path string, kind Kind, rows, dim int, vecs []float32) error {
	var kindByte byte
	if kind == KindFlatL2 {
		kindByte = 1
	}

	buf := make([]byte, 14+4*len(vecs))
	copy(buf[:4], indexMagic[:])
	buf[4] = indexVersion
	buf[5] = kindByte
	binary.LittleEndian.PutUint32(buf[6:10], uint32(rows))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(dim))
	for i, v := range vecs {
		binary.LittleEndian.PutUint32(buf[14+4*i:], math.Float32bits(v))
	}
	return storage.WriteFileAtomic(path, buf)
}

func readIndex(path string) (kind Kind, rows, dim int, vecs []float32, err error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", 0, 0, nil, storage.ErrIndexNotFound
	}
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(raw) < 14 || [4]byte(raw[:4]) != indexMagic || raw[4] != indexVersion {
		return "", 0, 0, nil, fmt.Errorf("%w: bad index header in %s", storage.ErrInvalidFormat, path)
	}
	kind = KindFlatIP
	if raw[5] == 1 {
		kind = KindFlatL2
	}
	rows = int(binary.LittleEndian.Uint32(raw[6:10]))
	dim = int(binary.LittleEndian.Uint32(raw[10:14]))
	if len(raw) != 14+4*rows*dim {
		return "", 0, 0, nil, fmt.Errorf("%w: index body is %d bytes, want %d",
			storage.ErrInvalidFormat, len(raw)-14, 4*rows*dim)
	}

	vecs = make([]float32, rows*dim)
	for i := range vecs {
		vecs[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[14+4*i:]))
	}
	return kind, rows, dim, vecs, nil
}
