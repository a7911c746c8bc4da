package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/docqa/internal/ask"
	"github.com/ziadkadry99/docqa/internal/cache"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/embeddings"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/ner"
	"github.com/ziadkadry99/docqa/internal/qa"
	"github.com/ziadkadry99/docqa/internal/registry"
	"github.com/ziadkadry99/docqa/internal/storage"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docqa init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openAIKey() (string, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	return key, nil
}

// newEmbedder creates the configured embedder.
func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	key, err := openAIKey()
	if err != nil {
		return nil, err
	}
	return embeddings.NewOpenAIEmbedder(key, cfg.Embedding.Model, cfg.Embedding.Normalize), nil
}

// newQAService creates the configured answer service.
func newQAService(cfg *config.Config) (qa.Service, error) {
	key, err := openAIKey()
	if err != nil {
		return nil, err
	}
	return qa.NewOpenAIService(key, cfg.QA.Model), nil
}

// newNERService creates the entity extraction service. Extraction is optional
// and the service degrades to nothing when disabled.
func newNERService(cfg *config.Config) (*ner.Service, error) {
	if !cfg.NER.Enabled {
		return ner.NewService(cfg.NER, nil), nil
	}
	key, err := openAIKey()
	if err != nil {
		return nil, err
	}
	return ner.NewService(cfg.NER, ner.NewOpenAIExtractor(key, cfg.NER.Model)), nil
}

// newCache connects to the configured cache backend. An unreachable Redis is
// reported and replaced with a no-op cache rather than failing startup.
func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.Noop{}
	}
	c, err := cache.NewRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		log.Printf("cache disabled: %v", err)
		return cache.Noop{}
	}
	return c
}

// openDB opens the document registry database under the data directory.
func openDB(cfg *config.Config) (*db.DB, error) {
	return db.Open(filepath.Join(cfg.DataDir, "docqa.db"))
}

// newAskEngine wires the full question answering pipeline.
func newAskEngine(ctx context.Context, cfg *config.Config, st *storage.Store) (*ask.Engine, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	qaSvc, err := newQAService(cfg)
	if err != nil {
		return nil, err
	}
	nerSvc, err := newNERService(cfg)
	if err != nil {
		return nil, err
	}
	return ask.NewEngine(cfg, st, emb, qaSvc, nerSvc, newCache(ctx, cfg)), nil
}

// newIndexer wires the offline build pipeline.
func newIndexer(cfg *config.Config, st *storage.Store) (*indexer.Indexer, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return indexer.New(cfg, st, emb), nil
}

// registryStatusFor maps a completed build stage to the registry status.
func registryStatusFor(stage string) string {
	switch stage {
	case "chunk":
		return registry.StatusChunked
	case "embed":
		return registry.StatusEmbedded
	case "index":
		return registry.StatusIndexed
	}
	return registry.StatusAdded
}
