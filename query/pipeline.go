package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/resilience"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 3

	// MalformedAnswer replaces replies that were not text.
	MalformedAnswer = "[Error: Invalid response format]"

	contextSeparator = "\n\n"
)

// Pipeline answers questions grounded in a session's document.
type Pipeline struct {
	sessions  storage.SessionRepository
	vectors   storage.VectorStore
	embedder  ai.Embedder
	generator ai.Generator
	executor  *resilience.Executor
	topK      int
	genConfig ai.GenerationConfig
	task      ai.TaskType
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTopK sets how many chunks are retrieved. Default is 3.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		p.topK = k
		return nil
	}
}

// WithGenerationConfig sets the sampling parameters for answers.
func WithGenerationConfig(cfg ai.GenerationConfig) Option {
	return func(p *Pipeline) error {
		p.genConfig = cfg
		return nil
	}
}

// WithTaskType sets the embedding task hint for questions.
// Default is ai.TaskSemanticSimilarity, matching how documents are embedded.
func WithTaskType(task ai.TaskType) Option {
	return func(p *Pipeline) error {
		p.task = task
		return nil
	}
}

// WithExecutor sets the executor that wraps provider calls.
func WithExecutor(executor *resilience.Executor) Option {
	return func(p *Pipeline) error {
		if executor == nil {
			return ErrExecutorRequired
		}
		p.executor = executor
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a query pipeline.
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
		sessions:  sessions,
		vectors:   vectors,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		topK:      DefaultTopK,
		genConfig: ai.DefaultGenerationConfig(),
		task:      ai.TaskSemanticSimilarity,
		logger:    slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.executor == nil {
		p.executor = resilience.New(resilience.WithLogger(p.logger))
	}
	return p, nil
}

// Answer is the outcome of a successful Ask.
type Answer struct {
	// Text is the answer appended to the transcript.
	Text string
	// Messages is the full transcript after the answer was appended.
	Messages []core.Message
	// Context is the retrieved text the answer was grounded on.
	Context string
	// Malformed reports that the provider reply was replaced with MalformedAnswer.
	Malformed bool
}

// Ask answers question from the session's document and records both on the transcript.
//
// Returns core.ErrNotFound for an unknown session and core.ErrNoDocument if
// nothing was ingested; in both cases the transcript is unchanged and no
// provider call is made.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArgument, ErrEmptyQuestion)
	}

	unlock := p.sessions.Lock(sessionID)
	defer unlock()

	// Validated
	session, err := p.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasDocument() {
		return nil, core.ErrNoDocument
	}
	logger := p.logger.With("session", sessionID)

	// UserMsgAppended
	session.AppendMessage(core.RoleUser, question)
	if err := p.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("record question: %w", err)
	}

	// QuestionEmbedded
	vector, err := resilience.Do(ctx, p.executor, func(ctx context.Context) ([]float32, error) {
		return p.embedder.EmbedText(ctx, question, p.task)
	})
	if err != nil {
		logger.Error("failed to embed question", "err", err)
		return nil, fmt.Errorf("embed question: %w", err)
	}

	// ContextRetrieved
	matches, err := p.vectors.Query(ctx, vector, p.topK, sessionID)
	if err != nil {
		logger.Error("failed to retrieve context", "err", err)
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	grounding := joinContext(matches)
	if grounding == "" {
		logger.Warn("no context retrieved")
	}

	// AnswerGenerated
	conv := ai.Conversation{
		Context: grounding,
		History: ai.HistoryFromMessages(session.Messages),
	}
	reply, err := resilience.Do(ctx, p.executor, func(ctx context.Context) (ai.Reply, error) {
		return p.generator.Generate(ctx, conv, p.genConfig)
	})
	if err != nil {
		logger.Error("failed to generate answer", "err", err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	// AnswerSanitized
	text := reply.Text()
	if reply.Malformed() {
		logger.Warn("malformed reply", "detail", reply.Detail(), "err", core.ErrResponseMalformed)
		text = MalformedAnswer
	}

	// Persisted
	session.AppendMessage(core.RoleModel, text)
	if err := p.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}

	logger.Debug("answered question", "chunks", len(matches), "malformed", reply.Malformed())
	return &Answer{
		Text:      text,
		Messages:  append([]core.Message(nil), session.Messages...),
		Context:   grounding,
		Malformed: reply.Malformed(),
	}, nil
}

// joinContext concatenates chunk texts in rank order.
func joinContext(matches []*core.ChunkMatch) string {
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m == nil || m.Chunk == nil {
			continue
		}
		texts = append(texts, m.Chunk.Text)
	}
	return strings.Join(texts, contextSeparator)
}
