package gemini

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docqa/ai"
)

var errEmptyEmbedding = errors.New("no embedding data received from gemini")

// Embedder implements ai.Embedder with a Gemini embedding model.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(client *genai.Client, model string) *Embedder {
	return &Embedder{
		client: client,
		model:  model,
		logger: slog.Default().With("component", "gemini-embedder"),
	}
}

// EmbedText embeds a single text with the given task type.
func (e *Embedder) EmbedText(ctx context.Context, text string, task ai.TaskType) ([]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = taskType(task)

	e.logger.Debug("generating embedding", "length", len(text), "task", task)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		e.logger.Debug("embedding request failed", "err", err)
		return nil, ai.Classify(err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ai.NewProviderError(ai.KindFatal, errEmptyEmbedding)
	}
	return res.Embedding.Values, nil
}

func taskType(task ai.TaskType) genai.TaskType {
	switch task {
	case ai.TaskRetrievalDocument:
		return genai.TaskTypeRetrievalDocument
	case ai.TaskRetrievalQuery:
		return genai.TaskTypeRetrievalQuery
	default:
		return genai.TaskTypeSemanticSimilarity
	}
}
