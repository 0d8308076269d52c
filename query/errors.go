package query

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrExecutorRequired is returned when a nil executor is supplied.
	ErrExecutorRequired = errors.New("executor required")

	// ErrInvalidTopK is returned when topK is less than 1.
	ErrInvalidTopK = errors.New("topK must be at least 1")

	// ErrEmptyQuestion is returned when the question has no text.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)
