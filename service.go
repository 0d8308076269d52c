// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docqa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/extract"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/query"
	"github.com/poiesic/docqa/reindex"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
)

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Service is the entry point for managing chat sessions, ingesting documents
// and answering questions about them.
type Service struct {
	backend   *badger.Backend
	sessions  storage.SessionRepository
	vectors   storage.VectorStore
	provider  ai.AIProvider
	extractor Extractor
	executor  *resilience.Executor
	ingestor  *ingestion.Pipeline
	querier   *query.Pipeline
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	executor      *resilience.Executor
	ingestionOpts []ingestion.Option
	queryOpts     []query.Option
	logger        *slog.Logger
	backend       *badger.Backend
}

// WithExecutor shares executor between ingestion and query.
// By default a single executor with the default policy is created.
func WithExecutor(executor *resilience.Executor) Option {
	return func(o *serviceOptions) {
		o.executor = executor
	}
}

// WithIngestionOptions passes extra options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) Option {
	return func(o *serviceOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithQueryOptions passes extra options to the query pipeline.
func WithQueryOptions(opts ...query.Option) Option {
	return func(o *serviceOptions) {
		o.queryOpts = append(o.queryOpts, opts...)
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// withBackend hands ownership of backend to the service so Close shuts it down.
func withBackend(backend *badger.Backend) Option {
	return func(o *serviceOptions) {
		o.backend = backend
	}
}

// New wires a Service from its parts. A nil extractor uses extract.New().
// The service takes ownership of sessions, vectors and provider.
func New(
	sessions storage.SessionRepository,
	vectors storage.VectorStore,
	provider ai.AIProvider,
	extractor Extractor,
	opts ...Option,
) (*Service, error) {
	options := &serviceOptions{
		logger: slog.Default().With("component", "docqa"),
	}
	for _, opt := range opts {
		opt(options)
	}
	if extractor == nil {
		extractor = extract.New()
	}
	if options.executor == nil {
		options.executor = resilience.New(resilience.WithLogger(options.logger))
	}

	ingestor, err := ingestion.NewPipeline(sessions, vectors, provider,
		append([]ingestion.Option{ingestion.WithExecutor(options.executor)}, options.ingestionOpts...)...)
	if err != nil {
		return nil, err
	}

	querier, err := query.NewPipeline(sessions, vectors, provider,
		append([]query.Option{query.WithExecutor(options.executor)}, options.queryOpts...)...)
	if err != nil {
		ingestor.Release()
		return nil, err
	}

	return &Service{
		backend:   options.backend,
		sessions:  sessions,
		vectors:   vectors,
		provider:  provider,
		extractor: extractor,
		executor:  options.executor,
		ingestor:  ingestor,
		querier:   querier,
		logger:    options.logger,
	}, nil
}

// Close releases the pipelines, the provider, the repositories and any owned backend.
func (s *Service) Close() error {
	s.ingestor.Release()

	var errs []error
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := s.vectors.Close(); err != nil {
		s.logger.Error("error closing vector store", "err", err)
		errs = append(errs, err)
	}
	if err := s.sessions.Close(); err != nil {
		s.logger.Error("error closing session repository", "err", err)
		errs = append(errs, err)
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Executor returns the executor shared by every provider call.
func (s *Service) Executor() *resilience.Executor {
	return s.executor
}

// CreateSession starts an empty chat session.
func (s *Service) CreateSession(ctx context.Context) (*core.ChatSession, error) {
	session, err := s.sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created session", "session", session.ID)
	return session, nil
}

// GetSession returns a session by id.
func (s *Service) GetSession(ctx context.Context, id string) (*core.ChatSession, error) {
	if err := core.ValidateSessionID(id); err != nil {
		return nil, err
	}
	return s.sessions.GetSession(ctx, id)
}

// ListSessions returns all sessions, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]*core.ChatSession, error) {
	return s.sessions.ListSessions(ctx)
}

// RenameSession changes a session's display name.
func (s *Service) RenameSession(ctx context.Context, id, name string) (*core.ChatSession, error) {
	if err := core.ValidateSessionID(id); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: session name cannot be empty", core.ErrInvalidArgument)
	}

	unlock := s.sessions.Lock(id)
	defer unlock()

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Name = name
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session and its stored chunks.
// Later operations on id report core.ErrNotFound.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := core.ValidateSessionID(id); err != nil {
		return err
	}

	unlock := s.sessions.Lock(id)
	defer unlock()

	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return err
	}
	if err := s.vectors.DeleteNamespace(ctx, id); err != nil {
		// The session is gone, so its chunks are unreachable.
		s.logger.Warn("failed to purge session chunks", "session", id, "err", err)
	}
	s.logger.Info("deleted session", "session", id)
	return nil
}

// IngestDocument extracts text from raw and makes it the session's document,
// replacing any earlier one.
//
// Extraction problems wrap core.ErrExtraction; embedding or storage problems
// wrap core.ErrIngestion. core.ErrNotFound and core.ErrInvalidArgument are
// returned unwrapped.
func (s *Service) IngestDocument(ctx context.Context, id, filename string, raw []byte) (*ingestion.Result, error) {
	if err := core.ValidateSessionID(id); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no document provided", core.ErrInvalidArgument)
	}
	if _, err := s.sessions.GetSession(ctx, id); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, filename, raw)
	if err != nil {
		if errors.Is(err, core.ErrExtraction) || isPassThrough(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	result, err := s.ingestor.Ingest(ctx, id, text, &ingestion.IngestOptions{Filename: filename})
	if err != nil {
		if errors.Is(err, core.ErrExtraction) || isPassThrough(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrIngestion, err)
	}
	return result, nil
}

// Ask answers question using the session's document.
//
// core.ErrNotFound, core.ErrNoDocument and core.ErrInvalidArgument are
// returned unwrapped; other failures wrap core.ErrGeneration.
func (s *Service) Ask(ctx context.Context, id, question string) (*query.Answer, error) {
	answer, err := s.querier.Ask(ctx, id, question)
	if err != nil {
		if errors.Is(err, core.ErrNoDocument) || isPassThrough(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	return answer, nil
}

// Reindex re-embeds every session document with the current provider and
// writes it to the current vector store. A nil cfg uses reindex.DefaultConfig.
func (s *Service) Reindex(ctx context.Context, cfg *reindex.Config, progress io.Writer) (*reindex.Summary, error) {
	r, err := reindex.NewReindexer(s.sessions, s.ingestor, cfg, progress)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// isPassThrough reports errors that keep their own category at the boundary.
func isPassThrough(err error) bool {
	return errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, core.ErrInvalidArgument) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
