package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage"
)

// DefaultPoolSize bounds concurrent ingestions when WithPoolSize is not given.
// Jobs spend nearly all their time waiting on the provider, so the bound is
// sized for sessions, not CPUs.
const DefaultPoolSize = 64

// Pipeline embeds documents and records them on their sessions.
type Pipeline struct {
	sessions storage.SessionRepository
	vectors  storage.VectorStore
	embedder ai.Embedder
	executor *resilience.Executor
	pool     *ants.Pool
	slots    chan struct{} // one per pool worker; acquired before Submit
	task     ai.TaskType
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of documents processed concurrently.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}
		return p.setPool(size)
	}
}

func (p *Pipeline) setPool(size int) error {
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return err
	}
	p.pool = pool
	p.slots = make(chan struct{}, size)
	return nil
}

// WithExecutor sets the executor that wraps embedding calls.
// Share one executor across pipelines so they observe one rate limit.
func WithExecutor(executor *resilience.Executor) Option {
	return func(p *Pipeline) error {
		if executor == nil {
			return ErrExecutorRequired
		}
		p.executor = executor
		return nil
	}
}

// WithTaskType sets the embedding task hint for documents.
// Default is ai.TaskSemanticSimilarity.
func WithTaskType(task ai.TaskType) Option {
	return func(p *Pipeline) error {
		p.task = task
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	sessions storage.SessionRepository,
	vectors storage.VectorStore,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		sessions: sessions,
		vectors:  vectors,
		embedder: provider.Embedder(),
		task:     ai.TaskSemanticSimilarity,
		logger:   slog.Default().With("component", "ingestion"),
	}
	if err := p.setPool(DefaultPoolSize); err != nil {
		return nil, err
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.executor == nil {
		p.executor = resilience.New(resilience.WithLogger(p.logger))
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Filename string // Original upload name, recorded on the session
}

// Result describes a completed ingestion.
type Result struct {
	Session    *core.ChatSession
	StoredText string
	ChunkID    string
}

type outcome struct {
	result *Result
	err    error
}

// Ingest embeds text and makes it the session's document.
//
// Returns core.ErrNotFound if the session doesn't exist and core.ErrExtraction
// if text is empty. Embedding and storage failures are returned as-is.
// When every worker is busy, Ingest queues until one frees up or ctx is done.
func (p *Pipeline) Ingest(ctx context.Context, sessionID, text string, opts *IngestOptions) (*Result, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document contains no text", core.ErrExtraction)
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	done := make(chan outcome, 1)
	err := p.pool.Submit(func() {
		defer func() { <-p.slots }()
		result, err := p.ingest(ctx, sessionID, text, opts)
		done <- outcome{result: result, err: err}
	})
	if err != nil {
		<-p.slots
		return nil, fmt.Errorf("submit ingestion: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.result, out.err
	}
}

func (p *Pipeline) ingest(ctx context.Context, sessionID, text string, opts *IngestOptions) (*Result, error) {
	unlock := p.sessions.Lock(sessionID)
	defer unlock()

	session, err := p.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With("session", sessionID)
	logger.Debug("embedding document", "chars", len(text), "filename", opts.Filename)

	vector, err := resilience.Do(ctx, p.executor, func(ctx context.Context) ([]float32, error) {
		return p.embedder.EmbedText(ctx, text, p.task)
	})
	if err != nil {
		logger.Error("failed to embed document", "err", err)
		return nil, fmt.Errorf("embed document: %w", err)
	}

	replaced := session.HasDocument()
	if replaced {
		if err := p.vectors.DeleteNamespace(ctx, sessionID); err != nil {
			logger.Error("failed to remove previous document", "err", err)
			return nil, fmt.Errorf("remove previous document: %w", err)
		}
	}

	chunk := &core.StoredChunk{
		ID:        core.ChunkID(sessionID, text),
		Namespace: sessionID,
		Text:      text,
		Vector:    vector,
	}
	if err := p.vectors.Upsert(ctx, chunk); err != nil {
		logger.Error("failed to store document", "err", err)
		if replaced {
			p.clearDocument(ctx, session, logger)
		}
		return nil, fmt.Errorf("store document: %w", err)
	}

	session.Document = &core.Document{
		ChunkID:    chunk.ID,
		Filename:   opts.Filename,
		Text:       text,
		IngestedAt: time.Now().UTC(),
	}
	if err := p.sessions.UpdateSession(ctx, session); err != nil {
		logger.Error("failed to record document", "err", err)
		return nil, fmt.Errorf("record document: %w", err)
	}

	logger.Info("ingested document", "chunk", chunk.ID, "replaced", replaced)
	return &Result{
		Session:    session,
		StoredText: text,
		ChunkID:    chunk.ID,
	}, nil
}

// clearDocument drops the marker of a document whose chunks were already deleted.
func (p *Pipeline) clearDocument(ctx context.Context, session *core.ChatSession, logger *slog.Logger) {
	session.Document = nil
	if err := p.sessions.UpdateSession(context.WithoutCancel(ctx), session); err != nil && !errors.Is(err, core.ErrNotFound) {
		logger.Error("failed to clear document marker", "err", err)
	}
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
