package reindex

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when no session repository is given.
	ErrSessionRepositoryRequired = errors.New("session repository is required")

	// ErrIngesterRequired is returned when no ingester is given.
	ErrIngesterRequired = errors.New("ingester is required")
)
