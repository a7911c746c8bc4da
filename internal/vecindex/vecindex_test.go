package vecindex

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ziadkadry99/docqa/internal/storage"
)

const testDocID = "a3f9c2d1b4e5f6a7"

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	st := storage.New(t.TempDir())
	if err := st.EnsureDocDir(testDocID); err != nil {
		t.Fatal(err)
	}
	return st
}

func writeTestEmbeddings(t *testing.T, st *storage.Store, normalize bool, vecs [][]float32) {
	t.Helper()
	dim := len(vecs[0])
	flat := make([]float32, 0, len(vecs)*dim)
	for _, v := range vecs {
		flat = append(flat, v...)
	}
	if err := WriteMatrix(st.EmbeddingsPath(testDocID), len(vecs), dim, flat); err != nil {
		t.Fatal(err)
	}
	err := st.WriteEmbeddingsInfo(testDocID, &storage.EmbeddingsInfo{
		DocID:           testDocID,
		RowCount:        len(vecs),
		Dim:             dim,
		EmbeddingModel:  "test-model",
		Normalize:       normalize,
		BatchSize:       64,
		ChunkingVersion: "deadbeefdeadbeef",
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.f32")
	data := []float32{1, 2, 3, 4, 5, 6}
	if err := WriteMatrix(path, 2, 3, data); err != nil {
		t.Fatal(err)
	}
	rows, dim, got, err := ReadMatrix(path, storage.ErrEmbeddingsNotFound)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 2 || dim != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", rows, dim)
	}
	for i, v := range data {
		if got[i] != v {
			t.Fatalf("value[%d] = %f, want %f", i, got[i], v)
		}
	}
}

func TestMatrixMissing(t *testing.T) {
	_, _, _, err := ReadMatrix(filepath.Join(t.TempDir(), "absent"), storage.ErrEmbeddingsNotFound)
	if !errors.Is(err, storage.ErrEmbeddingsNotFound) {
		t.Fatalf("err = %v, want ErrEmbeddingsNotFound", err)
	}
}

func TestMatrixCorruptHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.f32")
	if err := os.WriteFile(path, []byte("not a matrix"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := ReadMatrix(path, storage.ErrEmbeddingsNotFound)
	if !errors.Is(err, storage.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestMatrixShapeMismatch(t *testing.T) {
	if err := WriteMatrix(filepath.Join(t.TempDir(), "m.f32"), 2, 3, []float32{1, 2}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestFlatSearchIP(t *testing.T) {
	f, err := NewFlat(KindFlatIP, 2, []float32{
		1, 0,
		0, 1,
		0.6, 0.8,
	})
	if err != nil {
		t.Fatal(err)
	}

	scores, rows, err := f.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0] != 0 {
		t.Fatalf("rows = %v, want row 0 first", rows)
	}
	if math.Abs(float64(scores[0])-1) > 1e-6 {
		t.Fatalf("top score = %f, want 1 for identical unit vector", scores[0])
	}
	if rows[1] != 2 {
		t.Fatalf("second row = %d, want 2", rows[1])
	}
}

func TestFlatSearchL2(t *testing.T) {
	f, err := NewFlat(KindFlatL2, 2, []float32{
		0, 0,
		3, 4,
		1, 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	scores, rows, err := f.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0] != 2 || scores[0] != 0 {
		t.Fatalf("nearest = row %d score %f, want row 2 score 0", rows[0], scores[0])
	}
	if rows[1] != 0 {
		t.Fatalf("second nearest = row %d, want 0", rows[1])
	}
}

func TestFlatSearchClampsK(t *testing.T) {
	f, err := NewFlat(KindFlatIP, 2, []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	scores, rows, err := f.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 || len(rows) != 1 {
		t.Fatalf("got %d results, want 1", len(rows))
	}
}

func TestFlatSearchDimensionMismatch(t *testing.T) {
	f, err := NewFlat(KindFlatIP, 2, []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestFlatSearchDeterministicTies(t *testing.T) {
	f, err := NewFlat(KindFlatIP, 2, []float32{
		0.6, 0.8,
		0.6, 0.8,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, rows, err := f.Search([]float32{0.6, 0.8}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0] != 0 || rows[1] != 1 {
		t.Fatalf("tied rows = %v, want row order preserved", rows)
	}
}

func TestBuildAndLoad(t *testing.T) {
	st := testStore(t)
	writeTestEmbeddings(t, st, true, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	})

	meta, err := Build(st, testDocID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.IndexType != KindFlatIP {
		t.Fatalf("index type = %s, want IndexFlatIP for normalized embeddings", meta.IndexType)
	}
	if meta.RowCount != 2 || meta.Dim != 3 {
		t.Fatalf("meta shape = %dx%d, want 2x3", meta.RowCount, meta.Dim)
	}

	f, loaded, err := Load(st, testDocID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.IndexType != meta.IndexType || f.Rows() != 2 || f.Dim() != 3 {
		t.Fatal("loaded index disagrees with build metadata")
	}

	scores, rows, err := f.Search([]float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0] != 1 || math.Abs(float64(scores[0])-1) > 1e-6 {
		t.Fatalf("search = row %d score %f, want row 1 score 1", rows[0], scores[0])
	}
}

func TestBuildUnnormalizedUsesL2(t *testing.T) {
	st := testStore(t)
	writeTestEmbeddings(t, st, false, [][]float32{
		{1, 2},
		{3, 4},
	})

	meta, err := Build(st, testDocID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.IndexType != KindFlatL2 {
		t.Fatalf("index type = %s, want IndexFlatL2 for raw embeddings", meta.IndexType)
	}
}

func TestBuildMissingEmbeddings(t *testing.T) {
	st := testStore(t)
	_, err := Build(st, testDocID)
	if !errors.Is(err, storage.ErrEmbeddingsInfoNotFound) {
		t.Fatalf("err = %v, want ErrEmbeddingsInfoNotFound", err)
	}
}

func TestBuildShapeDisagreement(t *testing.T) {
	st := testStore(t)
	writeTestEmbeddings(t, st, true, [][]float32{{1, 0}})

	info, err := st.ReadEmbeddingsInfo(testDocID)
	if err != nil {
		t.Fatal(err)
	}
	info.RowCount = 5
	if err := st.WriteEmbeddingsInfo(testDocID, info); err != nil {
		t.Fatal(err)
	}

	if _, err := Build(st, testDocID); !errors.Is(err, storage.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestLoadMissingIndex(t *testing.T) {
	st := testStore(t)
	_, _, err := Load(st, testDocID)
	if !errors.Is(err, storage.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}
