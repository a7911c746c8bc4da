package ask

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ziadkadry99/docqa/internal/cache"
	"github.com/ziadkadry99/docqa/internal/chunker"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/ner"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/retrieval"
	"github.com/ziadkadry99/docqa/internal/storage"
)

// Engine answers questions over indexed documents with layered caching.
// Cache layers are consulted cheapest-first: semantic, exact answer, query
// embedding, per-document retrieval. Every cache failure degrades to a miss.
type Engine struct {
	cfg   *config.Config
	st    *storage.Store
	emb   embeddings.Embedder
	ret   *retrieval.Retriever
	ans   *qa.Answerer
	ner   *ner.Service
	cache cache.Cache
}

// NewEngine wires the ask pipeline together.
func NewEngine(cfg *config.Config, st *storage.Store, emb embeddings.Embedder, qaSvc qa.Service, nerSvc *ner.Service, c cache.Cache) *Engine {
	if c == nil {
		c = cache.Noop{}
	}
	return &Engine{
		cfg:   cfg,
		st:    st,
		emb:   emb,
		ret:   retrieval.New(cfg, st, emb),
		ans:   qa.NewAnswerer(cfg, qaSvc),
		ner:   nerSvc,
		cache: c,
	}
}

// Ask answers one question over the requested scope.
func (e *Engine) Ask(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	topK := req.TopK
	if topK == 0 {
		topK = e.cfg.Retrieval.DefaultTopK
	}
	topK = e.ret.ClampTopK(topK)

	docIDs, err := e.resolveScope(req.DocIDs)
	if err != nil {
		return nil, err
	}

	scope := cache.ScopeKey(req.DocIDs)
	pipelineVersion := e.cfg.PipelineVersion()
	chunkingVersion := chunker.Version(e.cfg.Chunking)
	ttl := time.Duration(e.cfg.Cache.TTLSeconds) * time.Second

	// Layer 1: semantic cache. Questions that mask to the same shape share a
	// slot; the stored embedding guards against unrelated questions that
	// happen to collide after masking.
	semKey := cache.SemanticKey(scope, pipelineVersion, question, topK)
	var maskedVec []float32
	if e.cfg.Cache.SemanticEnabled {
		if resp, vec := e.semanticLookup(ctx, semKey, question); resp != nil {
			log.Printf("ask cache=semantic hit scope=%s elapsed=%s", scope, time.Since(start))
			resp.CacheHit = "semantic"
			return resp, nil
		} else if vec != nil {
			maskedVec = vec
		}
	}

	// Layer 2: exact answer cache.
	ansKey := cache.AnswerKey(scope, pipelineVersion, question, topK)
	var cached Response
	if e.cache.GetJSON(ctx, ansKey, &cached) {
		log.Printf("ask cache=answer hit scope=%s elapsed=%s", scope, time.Since(start))
		cached.CacheHit = "answer"
		return &cached, nil
	}

	// Layer 3: query embedding cache.
	qembKey := cache.QueryEmbeddingKey(e.emb.Name(), chunkingVersion, question)
	queryVec, ok := e.cache.GetVector(ctx, qembKey)
	if !ok {
		queryVec, err = e.ret.EmbedQuery(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		e.cache.SetVector(ctx, qembKey, queryVec, ttl)
	}

	// Layer 4: per-document retrieval cache.
	lists := make([][]retrieval.RetrievedChunk, 0, len(docIDs))
	for _, docID := range docIDs {
		retrKey := cache.RetrievalKey(scope, indexer.IndexVersion, docID, question, topK)
		var results []retrieval.RetrievedChunk
		if !e.cache.GetJSON(ctx, retrKey, &results) {
			results, err = e.ret.SearchWithVector(docID, queryVec, topK)
			if err != nil {
				return nil, fmt.Errorf("searching %s: %w", docID, err)
			}
			e.cache.SetJSON(ctx, retrKey, results, ttl)
		}
		lists = append(lists, results)
	}

	merged := retrieval.Merge(lists, topK)

	result, err := e.ans.AnswerWithSources(ctx, question, merged)
	if err != nil {
		return nil, err
	}

	entities := []ner.Entity{}
	if e.ner != nil {
		entities = e.ner.ExtractAll(ctx, result.Answer, merged)
	}

	resp := &Response{
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Sources:    merged,
		Entities:   entities,
	}

	e.cache.SetJSON(ctx, ansKey, resp, ttl)
	if e.cfg.Cache.SemanticEnabled {
		if maskedVec == nil {
			maskedVec, err = e.ret.EmbedQuery(ctx, cache.MaskEntities(question))
			if err != nil {
				log.Printf("ask: skipping semantic cache write: %v", err)
			}
		}
		if maskedVec != nil {
			e.cache.SetVector(ctx, semKey+cache.EmbSuffix, maskedVec, ttl)
			e.cache.SetJSON(ctx, semKey+cache.RespSuffix, resp, ttl)
		}
	}

	log.Printf("ask cache=miss scope=%s docs=%d sources=%d elapsed=%s", scope, len(docIDs), len(merged), time.Since(start))
	return resp, nil
}

// semanticLookup checks the semantic slot for this question's masked form.
// On a usable hit it returns the cached response; otherwise it returns the
// freshly computed masked-question embedding for reuse at store time.
func (e *Engine) semanticLookup(ctx context.Context, semKey, question string) (*Response, []float32) {
	storedVec, ok := e.cache.GetVector(ctx, semKey+cache.EmbSuffix)
	if !ok {
		return nil, nil
	}

	maskedVec, err := e.ret.EmbedQuery(ctx, cache.MaskEntities(question))
	if err != nil {
		log.Printf("ask: semantic check degraded to miss: %v", err)
		return nil, nil
	}

	if embeddings.Cosine(maskedVec, storedVec) < e.cfg.Cache.SemanticThreshold {
		return nil, maskedVec
	}

	var resp Response
	if !e.cache.GetJSON(ctx, semKey+cache.RespSuffix, &resp) {
		return nil, maskedVec
	}
	return &resp, maskedVec
}

// resolveScope validates an explicit document list or expands the implicit
// "all" scope to every indexed document. Repeated ids are searched once.
// Unknown or malformed ids fail the whole request rather than being dropped,
// so a caller never silently gets an answer from a narrower scope than asked.
func (e *Engine) resolveScope(docIDs []string) ([]string, error) {
	if len(docIDs) == 0 {
		all, err := e.st.ListIndexedDocs()
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, ErrNoIndexedDocuments
		}
		return all, nil
	}

	seen := make(map[string]bool, len(docIDs))
	ids := make([]string, 0, len(docIDs))
	for _, id := range docIDs {
		if !storage.ValidDocID(id) {
			return nil, fmt.Errorf("%w: %s", storage.ErrInvalidDocID, id)
		}
		if !e.st.HasIndex(id) {
			return nil, fmt.Errorf("%w: %s", storage.ErrIndexNotFound, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
