package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The task hints how the vector will be used; providers that do not
	// distinguish tasks may ignore it.
	EmbedText(ctx context.Context, text string, task TaskType) ([]float32, error)
}

// Generator produces answers to a conversation.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate answers the last turn of conv.Turns(), sending every earlier
	// turn as chat history. A provider response that is not text is reported
	// as a malformed Reply, not as an error.
	Generate(ctx context.Context, conv Conversation, cfg GenerationConfig) (Reply, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
