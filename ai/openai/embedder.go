package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/tmc/langchaingo/embeddings"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

var errEmptyEmbedding = errors.New("no embedding data received")

// newEmbedder wraps client for single-text embedding calls.
func newEmbedder(client embeddings.EmbedderClient) (*Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates an embedder with its own client.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return newEmbedder(client)
}

// EmbedText generates a vector embedding for a single text string.
// Query tasks go through EmbedQuery, everything else through EmbedDocuments.
func (e *Embedder) EmbedText(ctx context.Context, text string, task ai.TaskType) ([]float32, error) {
	e.logger.Debug("generating embedding", "length", len(text), "task", task)

	if task == ai.TaskRetrievalQuery {
		vec, err := e.embedder.EmbedQuery(ctx, text)
		if err != nil {
			e.logger.Error("failed to generate query embedding", "err", err)
			return nil, ai.Classify(err)
		}
		return vec, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, ai.Classify(err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, ai.NewProviderError(ai.KindFatal, errEmptyEmbedding)
	}

	return vectors[0], nil
}
