package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/storage"
)

const testDocID = "a3f9c2d1b4e5f6a7"

// keywordEmbedder maps texts onto fixed axes by keyword so similarity is
// predictable: "alpha" texts and "beta" texts land on orthogonal unit vectors.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := []float32{0, 0, 1}
		if containsWord(t, "alpha") {
			v = []float32{1, 0, 0}
		} else if containsWord(t, "beta") {
			v = []float32{0, 1, 0}
		}
		out[i] = v
	}
	return out, nil
}

func (keywordEmbedder) Dimensions() int { return 3 }
func (keywordEmbedder) Name() string    { return "keyword-embed" }

func containsWord(s, w string) bool {
	for i := 0; i+len(w) <= len(s); i++ {
		if s[i:i+len(w)] == w {
			return true
		}
	}
	return false
}

var _ embeddings.Embedder = keywordEmbedder{}

func setupIndexedDoc(t *testing.T, docID string, pageTexts []string) (*config.Config, *storage.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	st := storage.New(cfg.DataDir)

	dt := &storage.DocText{DocID: docID}
	for i, text := range pageTexts {
		dt.Pages = append(dt.Pages, storage.Page{Page: i + 1, Text: text, Source: "native"})
	}
	if err := st.EnsureDocDir(docID); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteDocText(docID, dt); err != nil {
		t.Fatal(err)
	}

	ix := indexer.New(cfg, st, keywordEmbedder{})
	if _, err := ix.BuildAll(context.Background(), docID, false); err != nil {
		t.Fatal(err)
	}
	return cfg, st
}

func TestSearchRanksByQuerySimilarity(t *testing.T) {
	cfg, st := setupIndexedDoc(t, testDocID, []string{
		"the alpha release shipped in march",
		"the beta program is invite only",
	})
	ret := New(cfg, st, keywordEmbedder{})

	results, err := ret.Search(context.Background(), testDocID, "when did alpha ship", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !containsWord(results[0].TextSnippet, "alpha") {
		t.Fatalf("top snippet = %q, want the alpha chunk first", results[0].TextSnippet)
	}
	if results[0].Score < results[1].Score {
		t.Fatal("results not sorted best first")
	}
	if results[0].DocID != testDocID || results[0].ChunkID == "" {
		t.Fatal("result missing provenance")
	}
	if results[0].Page == nil || *results[0].Page != 1 {
		t.Fatalf("page = %v, want 1", results[0].Page)
	}
}

func TestSearchSnippetTruncated(t *testing.T) {
	long := "alpha "
	for len(long) < 3000 {
		long += "release notes keep going and going "
	}
	cfg, st := setupIndexedDoc(t, testDocID, []string{long})
	cfg.Retrieval.SnippetMaxChars = 100
	ret := New(cfg, st, keywordEmbedder{})

	results, err := ret.Search(context.Background(), testDocID, "alpha", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if len(results[0].TextSnippet) > 100 {
		t.Fatalf("snippet is %d chars, want at most 100", len(results[0].TextSnippet))
	}
}

func TestSearchSnippetRuneBoundary(t *testing.T) {
	// A run of two-byte runes puts the odd snippet cap mid-rune.
	long := "alpha " + strings.Repeat("é", 300)
	cfg, st := setupIndexedDoc(t, testDocID, []string{long})
	cfg.Retrieval.SnippetMaxChars = 101
	ret := New(cfg, st, keywordEmbedder{})

	results, err := ret.Search(context.Background(), testDocID, "alpha", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	snip := results[0].TextSnippet
	if !utf8.ValidString(snip) {
		t.Fatalf("snippet is not valid UTF-8: %q", snip)
	}
	if len(snip) > 101 {
		t.Fatalf("snippet is %d bytes, want at most 101", len(snip))
	}
}

func TestSearchMissingIndex(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	ret := New(cfg, storage.New(cfg.DataDir), keywordEmbedder{})

	_, err := ret.Search(context.Background(), testDocID, "anything", 3)
	if !errors.Is(err, storage.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestSearchInvalidDocID(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	ret := New(cfg, storage.New(cfg.DataDir), keywordEmbedder{})

	_, err := ret.SearchWithVector("../../etc", []float32{1, 0, 0}, 3)
	if !errors.Is(err, storage.ErrInvalidDocID) {
		t.Fatalf("err = %v, want ErrInvalidDocID", err)
	}
}

func TestClampTopK(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retrieval.MaxTopK = 20
	ret := New(cfg, storage.New(t.TempDir()), keywordEmbedder{})

	tests := []struct{ in, want int }{
		{0, 1},
		{-5, 1},
		{1, 1},
		{20, 20},
		{500, 20},
	}
	for _, tt := range tests {
		if got := ret.ClampTopK(tt.in); got != tt.want {
			t.Errorf("ClampTopK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	a := []RetrievedChunk{
		{DocID: "doc1", ChunkID: "a1", Score: 0.9},
		{DocID: "doc1", ChunkID: "a2", Score: 0.2},
	}
	b := []RetrievedChunk{
		{DocID: "doc2", ChunkID: "b1", Score: 0.7},
		{DocID: "doc2", ChunkID: "b2", Score: 0.4},
	}

	merged := Merge([][]RetrievedChunk{a, b}, 3)
	if len(merged) != 3 {
		t.Fatalf("got %d merged results, want 3", len(merged))
	}
	wantOrder := []string{"a1", "b1", "b2"}
	for i, id := range wantOrder {
		if merged[i].ChunkID != id {
			t.Fatalf("merged[%d] = %s, want %s", i, merged[i].ChunkID, id)
		}
	}
}

func TestMergeFewerResultsThanTopK(t *testing.T) {
	merged := Merge([][]RetrievedChunk{{{ChunkID: "only", Score: 0.5}}}, 10)
	if len(merged) != 1 {
		t.Fatalf("got %d results, want 1", len(merged))
	}
}

func TestMergeStableTies(t *testing.T) {
	a := []RetrievedChunk{{DocID: "doc1", ChunkID: "a1", Score: 0.5}}
	b := []RetrievedChunk{{DocID: "doc2", ChunkID: "b1", Score: 0.5}}

	merged := Merge([][]RetrievedChunk{a, b}, 2)
	if merged[0].ChunkID != "a1" || merged[1].ChunkID != "b1" {
		t.Fatalf("tie order = %s,%s, want input order preserved", merged[0].ChunkID, merged[1].ChunkID)
	}
}

func TestSearchEachResultHasChunkText(t *testing.T) {
	cfg, st := setupIndexedDoc(t, testDocID, []string{
		"alpha details on page one",
		"beta details on page two",
	})
	ret := New(cfg, st, keywordEmbedder{})

	results, err := ret.Search(context.Background(), testDocID, "beta", 2)
	if err != nil {
		t.Fatal(err)
	}

	known := map[string]bool{}
	err = chunker.Each(st, testDocID, func(ch chunker.Chunk) error {
		known[ch.ChunkID] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if !known[res.ChunkID] {
			t.Fatalf("result chunk %s not found in chunks.jsonl", res.ChunkID)
		}
		if res.TextSnippet == "" {
			t.Fatal("result has empty snippet")
		}
	}
}
