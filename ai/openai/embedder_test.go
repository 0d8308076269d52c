package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/poiesic/docqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEmbedder struct {
	docs    [][]float32
	query   []float32
	err     error
	queries int
	batches int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches++
	return f.docs, f.err
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queries++
	return f.query, f.err
}

func TestEmbedText_RoutesByTask(t *testing.T) {
	fake := &fakeEmbedder{docs: [][]float32{{1, 2}}, query: []float32{3, 4}}
	e := &Embedder{embedder: fake, logger: newTestLogger()}

	vec, err := e.EmbedText(context.Background(), "doc", ai.TaskSemanticSimilarity)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	vec, err = e.EmbedText(context.Background(), "doc", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	vec, err = e.EmbedText(context.Background(), "q", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, vec)

	assert.Equal(t, 2, fake.batches)
	assert.Equal(t, 1, fake.queries)
}

func TestEmbedText_EmptyResult(t *testing.T) {
	e := &Embedder{embedder: &fakeEmbedder{}, logger: newTestLogger()}
	_, err := e.EmbedText(context.Background(), "doc", ai.TaskSemanticSimilarity)
	require.Error(t, err)
	assert.ErrorIs(t, err, errEmptyEmbedding)
	assert.False(t, ai.IsRetryable(err))
}

func TestEmbedText_ClassifiesErrors(t *testing.T) {
	e := &Embedder{embedder: &fakeEmbedder{err: errors.New("429 too many requests")}, logger: newTestLogger()}
	_, err := e.EmbedText(context.Background(), "doc", ai.TaskSemanticSimilarity)
	require.Error(t, err)
	assert.Equal(t, ai.KindRateLimited, ai.KindOf(err))

	_, err = e.EmbedText(context.Background(), "q", ai.TaskRetrievalQuery)
	require.Error(t, err)
	assert.True(t, ai.IsRetryable(err))
}
