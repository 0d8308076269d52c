package docqa

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/gemini"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/extract"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/query"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/qdrant"
)

// Open builds a Service from configuration: storage backend, vector store,
// inference provider, and one executor shared by every provider call.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sessions, err := badger.NewSessionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectors, err := openVectorStore(ctx, cfg, backend)
	if err != nil {
		sessions.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openProvider(ctx, &cfg.AI)
	if err != nil {
		vectors.Close()
		sessions.Close()
		backend.Close()
		return nil, err
	}

	executor, err := resilience.NewExecutor(resilience.WithConfig(cfg.Resilience))
	if err != nil {
		provider.Close()
		vectors.Close()
		sessions.Close()
		backend.Close()
		return nil, err
	}

	defaults := []Option{
		withBackend(backend),
		WithExecutor(executor),
		WithQueryOptions(
			query.WithTopK(cfg.Query.TopK),
			query.WithGenerationConfig(cfg.Query.GenerationConfig()),
		),
	}
	if cfg.Ingestion.PoolSize > 0 {
		defaults = append(defaults, WithIngestionOptions(ingestion.WithPoolSize(cfg.Ingestion.PoolSize)))
	}

	extractor := extract.New(extract.WithMaxBytes(cfg.Server.MaxUploadBytes))
	svc, err := New(sessions, vectors, provider, extractor, append(defaults, opts...)...)
	if err != nil {
		provider.Close()
		vectors.Close()
		sessions.Close()
		backend.Close()
		return nil, err
	}
	svc.logger.Info("service ready",
		"provider", cfg.AI.Provider,
		"vector_backend", cfg.Storage.VectorBackend,
		"in_memory", cfg.Storage.InMemory)
	return svc, nil
}

func openVectorStore(ctx context.Context, cfg *config.Config, backend *badger.Backend) (storage.VectorStore, error) {
	switch cfg.Storage.VectorBackend {
	case config.VectorBackendQdrant:
		vectors, err := qdrant.NewVectorStore(ctx, &cfg.Qdrant)
		if err != nil {
			return nil, fmt.Errorf("open qdrant: %w", err)
		}
		return vectors, nil
	default:
		return badger.NewVectorStore(backend)
	}
}

func openProvider(ctx context.Context, cfg *ai.Config) (ai.AIProvider, error) {
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	default:
		return gemini.NewProvider(ctx, cfg)
	}
}
