package storage

import (
	"context"

	"github.com/poiesic/docqa/core"
)

// SessionRepository stores chat sessions.
// Implementations must be thread-safe and support concurrent access.
//
// Reads return copies; mutating a returned session has no effect until it is
// passed to UpdateSession. Callers doing read-modify-write hold Lock for the
// session id so concurrent writers do not overwrite each other.
type SessionRepository interface {
	// CreateSession allocates a new session with a fresh id, the default
	// name, an empty transcript and no document.
	CreateSession(ctx context.Context) (*core.ChatSession, error)

	// GetSession retrieves a session by id.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id string) (*core.ChatSession, error)

	// UpdateSession replaces the stored session wholesale.
	// Sets UpdatedAt. Returns ErrNotFound if the session doesn't exist.
	UpdateSession(ctx context.Context, session *core.ChatSession) error

	// DeleteSession removes a session.
	// Returns ErrNotFound if the session doesn't exist.
	DeleteSession(ctx context.Context, id string) error

	// ListSessions returns all sessions, most recently created first.
	ListSessions(ctx context.Context) ([]*core.ChatSession, error)

	// Lock acquires exclusive access to a session id and returns the release func.
	Lock(id string) (unlock func())

	// Close releases resources held by the repository.
	Close() error
}

// VectorStore stores embedded chunks partitioned by namespace.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// Upsert inserts or replaces chunks by id. Every chunk must pass
	// core.ValidateChunk. Sets InsertedAt if not already set.
	Upsert(ctx context.Context, chunks ...*core.StoredChunk) error

	// Query returns up to topK chunks in namespace ordered by similarity to
	// vector, highest first. Chunks stored under other namespaces are never returned.
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]*core.ChunkMatch, error)

	// DeleteNamespace removes every chunk stored under namespace.
	// Deleting an empty namespace is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Close releases resources held by the store.
	Close() error
}
