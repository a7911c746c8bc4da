package ask

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/cache"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/ner"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/storage"
)

const (
	doc1ID = "a1b2c3d4e5f60718"
	doc2ID = "b2c3d4e5f6071829"
)

const embDim = 32

// axisEmbedder gives every distinct text its own unit axis, except that
// texts mentioning "alpha" or "beta" share fixed axes. Identical texts get
// identical vectors, distinct texts are orthogonal.
type axisEmbedder struct {
	mu    sync.Mutex
	axes  map[string]int
	next  int
	calls int
}

func newAxisEmbedder() *axisEmbedder {
	return &axisEmbedder{axes: make(map[string]int), next: 2}
}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, embDim)
		switch {
		case strings.Contains(t, "alpha"):
			v[0] = 1
		case strings.Contains(t, "beta"):
			v[1] = 1
		default:
			axis, ok := e.axes[t]
			if !ok {
				axis = e.next % embDim
				e.axes[t] = axis
				e.next++
			}
			v[axis] = 1
		}
		out[i] = v
	}
	return out, nil
}

func (e *axisEmbedder) Dimensions() int { return embDim }
func (e *axisEmbedder) Name() string    { return "axis-embed" }

type countingQA struct {
	calls  int
	answer string
	conf   float64
}

func (s *countingQA) Answer(context.Context, string, string) (*qa.Result, error) {
	s.calls++
	c := s.conf
	return &qa.Result{Answer: s.answer, Confidence: &c}, nil
}

type testEnv struct {
	engine *Engine
	cfg    *config.Config
	emb    *axisEmbedder
	qa     *countingQA
}

func newTestEngine(t *testing.T, withDocs bool) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Cache.Enabled = true
	cfg.Cache.SemanticEnabled = true

	st := storage.New(cfg.DataDir)
	emb := newAxisEmbedder()

	if withDocs {
		docs := map[string]string{
			doc1ID: "the alpha release shipped in march and was well received by early customers",
			doc2ID: "the beta program remains invite only until the security review completes",
		}
		ix := indexer.New(cfg, st, emb)
		for id, text := range docs {
			if err := st.EnsureDocDir(id); err != nil {
				t.Fatal(err)
			}
			dt := &storage.DocText{DocID: id, Pages: []storage.Page{{Page: 1, Text: text, Source: "native"}}}
			if err := st.WriteDocText(id, dt); err != nil {
				t.Fatal(err)
			}
			if _, err := ix.BuildAll(context.Background(), id, false); err != nil {
				t.Fatal(err)
			}
		}
	}

	qaSvc := &countingQA{answer: "in march", conf: 0.9}
	nerSvc := ner.NewService(cfg.NER, nil)
	engine := NewEngine(cfg, st, emb, qaSvc, nerSvc, cache.NewMemory())
	return &testEnv{engine: engine, cfg: cfg, emb: emb, qa: qaSvc}
}

func TestAskEndToEnd(t *testing.T) {
	env := newTestEngine(t, true)

	resp, err := env.engine.Ask(context.Background(), Request{Question: "when did the alpha release ship?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "in march" {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if resp.CacheHit != "" {
		t.Fatalf("fresh answer reported cache hit %q", resp.CacheHit)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("no sources returned")
	}
	for i := 1; i < len(resp.Sources); i++ {
		if resp.Sources[i].Score > resp.Sources[i-1].Score {
			t.Fatal("sources not sorted by descending score")
		}
	}
	if resp.Sources[0].DocID != doc1ID {
		t.Fatalf("best source from %s, want the alpha document", resp.Sources[0].DocID)
	}
	if resp.Entities == nil {
		t.Fatal("entities must be an empty list, not null")
	}
}

func TestAskAnswerCacheHit(t *testing.T) {
	env := newTestEngine(t, true)
	env.cfg.Cache.SemanticEnabled = false

	req := Request{Question: "when did the alpha release ship?"}
	if _, err := env.engine.Ask(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	resp, err := env.engine.Ask(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if env.qa.calls != 1 {
		t.Fatalf("qa called %d times, want 1", env.qa.calls)
	}
	if resp.CacheHit != "answer" {
		t.Fatalf("cache hit = %q, want answer", resp.CacheHit)
	}
	if resp.Answer != "in march" || len(resp.Sources) == 0 {
		t.Fatal("cached response lost content")
	}
}

func TestAskWhitespaceVariantsShareAnswerCache(t *testing.T) {
	env := newTestEngine(t, true)
	env.cfg.Cache.SemanticEnabled = false

	if _, err := env.engine.Ask(context.Background(), Request{Question: "when did the alpha release ship?"}); err != nil {
		t.Fatal(err)
	}
	resp, err := env.engine.Ask(context.Background(), Request{Question: "  when   did the alpha release ship? "})
	if err != nil {
		t.Fatal(err)
	}
	if resp.CacheHit != "answer" {
		t.Fatalf("cache hit = %q, want answer for whitespace variant", resp.CacheHit)
	}
}

func TestAskSemanticCacheHit(t *testing.T) {
	env := newTestEngine(t, true)

	first, err := env.engine.Ask(context.Background(), Request{Question: "what alpha revenue was booked in 2020?"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.engine.Ask(context.Background(), Request{Question: "what alpha revenue was booked in 2021?"})
	if err != nil {
		t.Fatal(err)
	}

	if env.qa.calls != 1 {
		t.Fatalf("qa called %d times, want the year variant served from cache", env.qa.calls)
	}
	if second.CacheHit != "semantic" {
		t.Fatalf("cache hit = %q, want semantic", second.CacheHit)
	}
	if second.Answer != first.Answer {
		t.Fatal("semantic hit returned a different answer")
	}
}

func TestAskSemanticMissForDifferentQuestion(t *testing.T) {
	env := newTestEngine(t, true)

	if _, err := env.engine.Ask(context.Background(), Request{Question: "question one about totals in 2020"}); err != nil {
		t.Fatal(err)
	}
	resp, err := env.engine.Ask(context.Background(), Request{Question: "a completely different question about staff"})
	if err != nil {
		t.Fatal(err)
	}

	if env.qa.calls != 2 {
		t.Fatalf("qa called %d times, want 2 for unrelated questions", env.qa.calls)
	}
	if resp.CacheHit != "" {
		t.Fatalf("cache hit = %q, want miss", resp.CacheHit)
	}
}

func TestAskQueryEmbeddingReused(t *testing.T) {
	env := newTestEngine(t, true)
	env.cfg.Cache.SemanticEnabled = false

	if _, err := env.engine.Ask(context.Background(), Request{Question: "how is the beta going?", TopK: 3}); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := env.emb.calls

	// A different top_k misses the answer and retrieval caches but must reuse
	// the cached query embedding.
	if _, err := env.engine.Ask(context.Background(), Request{Question: "how is the beta going?", TopK: 4}); err != nil {
		t.Fatal(err)
	}
	if env.emb.calls != callsAfterFirst {
		t.Fatalf("embedder called %d more times, want 0", env.emb.calls-callsAfterFirst)
	}
	if env.qa.calls != 2 {
		t.Fatalf("qa called %d times, want 2", env.qa.calls)
	}
}

func TestAskScopedToOneDocument(t *testing.T) {
	env := newTestEngine(t, true)

	resp, err := env.engine.Ask(context.Background(), Request{
		Question: "what about the beta?",
		DocIDs:   []string{doc2ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range resp.Sources {
		if s.DocID != doc2ID {
			t.Fatalf("source from %s leaked into single-document scope", s.DocID)
		}
	}
}

func TestAskDuplicateDocIDsSearchedOnce(t *testing.T) {
	env := newTestEngine(t, true)
	env.cfg.Cache.SemanticEnabled = false

	resp, err := env.engine.Ask(context.Background(), Request{
		Question: "what about the beta?",
		DocIDs:   []string{doc2ID, doc2ID},
		TopK:     10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("no sources")
	}
	seen := map[string]int{}
	for _, s := range resp.Sources {
		seen[s.ChunkID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("chunk %s appears %d times when its document is listed twice", id, n)
		}
	}
}

func TestAskScopesDoNotShareAnswers(t *testing.T) {
	env := newTestEngine(t, true)
	env.cfg.Cache.SemanticEnabled = false

	q := "when did the alpha release ship?"
	if _, err := env.engine.Ask(context.Background(), Request{Question: q}); err != nil {
		t.Fatal(err)
	}
	resp, err := env.engine.Ask(context.Background(), Request{Question: q, DocIDs: []string{doc1ID}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.CacheHit != "" {
		t.Fatal("scoped ask must not reuse the all-scope answer cache")
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	env := newTestEngine(t, true)

	_, err := env.engine.Ask(context.Background(), Request{Question: "   "})
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
}

func TestAskInvalidDocID(t *testing.T) {
	env := newTestEngine(t, true)

	_, err := env.engine.Ask(context.Background(), Request{Question: "q", DocIDs: []string{"../../etc"}})
	if !errors.Is(err, storage.ErrInvalidDocID) {
		t.Fatalf("err = %v, want ErrInvalidDocID", err)
	}
}

func TestAskUnindexedDocument(t *testing.T) {
	env := newTestEngine(t, true)

	_, err := env.engine.Ask(context.Background(), Request{Question: "q", DocIDs: []string{"cafebabecafebabe"}})
	if !errors.Is(err, storage.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestAskNoIndexedDocuments(t *testing.T) {
	env := newTestEngine(t, false)

	_, err := env.engine.Ask(context.Background(), Request{Question: "anything"})
	if !errors.Is(err, ErrNoIndexedDocuments) {
		t.Fatalf("err = %v, want ErrNoIndexedDocuments", err)
	}
}

func TestAskWorksWithoutCache(t *testing.T) {
	env := newTestEngine(t, true)
	env.engine.cache = cache.Noop{}

	req := Request{Question: "when did the alpha release ship?"}
	for i := 0; i < 2; i++ {
		resp, err := env.engine.Ask(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.CacheHit != "" {
			t.Fatal("noop cache must never hit")
		}
	}
	if env.qa.calls != 2 {
		t.Fatalf("qa called %d times, want every ask recomputed", env.qa.calls)
	}
}

func TestAskRoutes(t *testing.T) {
	env := newTestEngine(t, true)

	r := chi.NewRouter()
	RegisterRoutes(r, env.engine)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ask", "application/json",
		strings.NewReader(`{"question": "when did the alpha release ship?"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question": ""}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty question status = %d, want 400", resp.StatusCode)
	}
}
