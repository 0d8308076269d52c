package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectors(t *testing.T) storage.VectorStore {
	t.Helper()
	_, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		vectors.Close()
		backend.Close()
	})
	return vectors
}

func chunk(namespace, text string, vector ...float32) *core.StoredChunk {
	return &core.StoredChunk{
		ID:        core.ChunkID(namespace, text),
		Namespace: namespace,
		Text:      text,
		Vector:    vector,
	}
}

func TestVectorStore_QueryRanksBySimilarity(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		chunk("s1", "north", 1, 0, 0),
		chunk("s1", "north-east", 0.7, 0.7, 0),
		chunk("s1", "east", 0, 1, 0),
		chunk("s1", "up", 0, 0, 1),
	))

	matches, err := store.Query(ctx, []float32{1, 0.1, 0}, 3, "s1")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "north", matches[0].Chunk.Text)
	assert.Equal(t, "north-east", matches[1].Chunk.Text)
	assert.Equal(t, "east", matches[2].Chunk.Text)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	assert.GreaterOrEqual(t, matches[1].Score, matches[2].Score)
	assert.False(t, matches[0].Chunk.InsertedAt.IsZero())
}

func TestVectorStore_NamespaceIsolation(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	// Identical text and vectors in both namespaces
	require.NoError(t, store.Upsert(ctx,
		chunk("session-a", "The sky is blue.", 1, 0),
		chunk("session-b", "The sky is blue.", 1, 0),
		chunk("session-b", "Grass is green.", 0.9, 0.1),
	))

	matches, err := store.Query(ctx, []float32{1, 0}, 10, "session-a")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "session-a", matches[0].Chunk.Namespace)

	matches, err = store.Query(ctx, []float32{1, 0}, 10, "session-b")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "session-b", m.Chunk.Namespace)
	}

	// A namespace that is a string prefix of another
	require.NoError(t, store.Upsert(ctx, chunk("session", "prefix", 1, 0)))
	matches, err = store.Query(ctx, []float32{1, 0}, 10, "session")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "prefix", matches[0].Chunk.Text)
}

func TestVectorStore_UpsertReplacesSameID(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, chunk("s1", "same", 1, 0)))
	require.NoError(t, store.Upsert(ctx, chunk("s1", "same", 0, 1)))

	matches, err := store.Query(ctx, []float32{0, 1}, 10, "s1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestVectorStore_EmptyNamespaceReturnsNoMatches(t *testing.T) {
	store := newTestVectors(t)
	matches, err := store.Query(context.Background(), []float32{1, 0}, 3, "nothing")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorStore_DeleteNamespace(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx,
		chunk("s1", "one", 1, 0),
		chunk("s1", "two", 0, 1),
		chunk("s2", "keep", 1, 0),
	))

	require.NoError(t, store.DeleteNamespace(ctx, "s1"))

	matches, err := store.Query(ctx, []float32{1, 0}, 10, "s1")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.Query(ctx, []float32{1, 0}, 10, "s2")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	assert.NoError(t, store.DeleteNamespace(ctx, "s1"), "deleting an empty namespace is not an error")
}

func TestVectorStore_InvalidArguments(t *testing.T) {
	store := newTestVectors(t)
	ctx := context.Background()

	err := store.Upsert(ctx, chunk("", "text", 1))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	err = store.Upsert(ctx, chunk("s1", "text"))
	assert.ErrorIs(t, err, core.ErrEmptyVector)

	_, err = store.Query(ctx, []float32{1}, 3, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = store.Query(ctx, nil, 3, "s1")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = store.Query(ctx, []float32{1}, 0, "s1")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	assert.ErrorIs(t, store.DeleteNamespace(ctx, " "), core.ErrInvalidArgument)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scale invariant", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
