package docqa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	vectors  storage.VectorStore
	provider *mock.MockProvider
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	sessions, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()
	executor := resilience.New(
		resilience.WithMinInterval(0),
		resilience.WithInitialDelay(time.Millisecond),
		resilience.WithJitter(0),
	)
	svc, err := New(sessions, vectors, provider, nil, append([]Option{WithExecutor(executor)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return &fixture{svc: svc, vectors: vectors, provider: provider}
}

func TestService_SkyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.provider.GetMockGenerator().WithGenerateFunc(func(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
		return ai.TextReply("The sky is blue."), nil
	})

	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSessionName, session.Name)
	assert.Empty(t, session.Messages)

	result, err := f.svc.IngestDocument(ctx, session.ID, "notes.txt", []byte("  The sky is blue.\n"))
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", result.StoredText)
	require.NotNil(t, result.Session.Document)
	assert.Equal(t, "notes.txt", result.Session.Document.Filename)

	answer, err := f.svc.Ask(ctx, session.ID, "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer.Text)
	require.Len(t, answer.Messages, 2)
	assert.Equal(t, core.RoleUser, answer.Messages[0].Role)
	assert.Equal(t, "What color is the sky?", answer.Messages[0].Text)
	assert.Equal(t, core.RoleModel, answer.Messages[1].Role)

	conv := f.provider.GetMockGenerator().LastConversation()
	assert.Contains(t, conv.Context, "The sky is blue.")

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 2)
}

func TestService_AskWithoutDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.Ask(ctx, session.ID, "anything?")
	assert.ErrorIs(t, err, core.ErrNoDocument)
	assert.False(t, errors.Is(err, core.ErrGeneration))
	assert.Zero(t, f.provider.GetMockGenerator().CallCount())

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
}

func TestService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.IngestDocument(ctx, "missing", "a.txt", []byte("text"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, errors.Is(err, core.ErrIngestion))

	_, err = f.svc.Ask(ctx, "missing", "q?")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.RenameSession(ctx, "missing", "name")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, f.svc.DeleteSession(ctx, "missing"), core.ErrNotFound)
}

func TestService_InvalidArguments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.GetSession(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.IngestDocument(ctx, "", "a.txt", []byte("text"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.IngestDocument(ctx, session.ID, "a.txt", nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Ask(ctx, session.ID, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.RenameSession(ctx, session.ID, " ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	assert.ErrorIs(t, f.svc.DeleteSession(ctx, ""), core.ErrInvalidArgument)
}

func TestService_ExtractionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.IngestDocument(ctx, session.ID, "blank.txt", []byte("   \n\t"))
	assert.ErrorIs(t, err, core.ErrExtraction)

	_, err = f.svc.IngestDocument(ctx, session.ID, "bad.pdf", []byte("%PDF-1.4 garbage"))
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Zero(t, f.provider.GetMockEmbedder().CallCount())

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasDocument())
}

func TestService_IngestionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	f.provider.GetMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string, task ai.TaskType) ([]float32, error) {
		return nil, ai.NewProviderError(ai.KindFatal, errors.New("invalid api key"))
	})

	_, err = f.svc.IngestDocument(ctx, session.ID, "a.txt", []byte("some text"))
	assert.ErrorIs(t, err, core.ErrIngestion)
	assert.ErrorIs(t, err, core.ErrProviderFatal)
}

func TestService_GenerationExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.svc.IngestDocument(ctx, session.ID, "a.txt", []byte("some text"))
	require.NoError(t, err)

	f.provider.GetMockGenerator().WithGenerateFunc(func(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
		return ai.Reply{}, ai.NewProviderError(ai.KindOverloaded, errors.New("503 model overloaded"))
	})

	_, err = f.svc.Ask(ctx, session.ID, "question?")
	assert.ErrorIs(t, err, core.ErrGeneration)
	assert.ErrorIs(t, err, core.ErrProviderTransient)
	assert.Equal(t, resilience.DefaultMaxAttempts, f.provider.GetMockGenerator().CallCount())
}

func TestService_DeleteSessionPurgesChunks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	result, err := f.svc.IngestDocument(ctx, session.ID, "a.txt", []byte("doomed text"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSession(ctx, session.ID))

	_, err = f.svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	matches, err := f.vectors.Query(ctx, mock.DeterministicVector(result.StoredText, mock.DefaultDimension), 3, session.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = f.svc.Ask(ctx, session.ID, "Still there?")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, errors.Is(err, core.ErrGeneration))

	_, err = f.svc.IngestDocument(ctx, session.ID, "b.txt", []byte("new text"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, errors.Is(err, core.ErrIngestion))

	_, err = f.svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "operations on a deleted session must not recreate it")
}

func TestService_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	b, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.IngestDocument(ctx, a.ID, "a.txt", []byte("Alpha document."))
	require.NoError(t, err)
	_, err = f.svc.IngestDocument(ctx, b.ID, "b.txt", []byte("Beta document."))
	require.NoError(t, err)

	answer, err := f.svc.Ask(ctx, a.ID, "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "Alpha document.", answer.Context)

	answer, err = f.svc.Ask(ctx, b.ID, "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "Beta document.", answer.Context)
}

func TestService_RenameAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	renamed, err := f.svc.RenameSession(ctx, first.ID, "  Quarterly report ")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report", renamed.Name)

	sessions, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, "Quarterly report", sessions[1].Name)
}

func TestService_ReingestReplacesDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.IngestDocument(ctx, session.ID, "old.txt", []byte("Old content."))
	require.NoError(t, err)
	_, err = f.svc.IngestDocument(ctx, session.ID, "new.txt", []byte("New content."))
	require.NoError(t, err)

	answer, err := f.svc.Ask(ctx, session.ID, "what now?")
	require.NoError(t, err)
	assert.Equal(t, "New content.", answer.Context)

	stored, err := f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.txt", stored.Document.Filename)
}

func TestService_CloseClosesProvider(t *testing.T) {
	sessions, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	provider := mock.NewMockProvider()

	svc, err := New(sessions, vectors, provider, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.True(t, provider.Closed())
}

func TestNew_RequiresParts(t *testing.T) {
	_, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = New(nil, vectors, mock.NewMockProvider(), nil)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = ai.ProviderOpenAI
	cfg.AI.Host = "http://localhost:11434"

	svc, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer svc.Close()

	session, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, cfg.Resilience, svc.Executor().Config())
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.AI.APIKey = ""
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestService_Reindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = f.svc.IngestDocument(ctx, session.ID, "a.txt", []byte("Reindexed text."))
	require.NoError(t, err)
	before := f.provider.GetMockEmbedder().CallCount()

	summary, err := f.svc.Reindex(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reindexed)
	assert.Equal(t, before+1, f.provider.GetMockEmbedder().CallCount())
}
