package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
	locks   *storage.KeyedMutex
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// newSessionRepository returns the concrete type for use inside the package.
func newSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{
		backend: backend,
		locks:   storage.NewKeyedMutex(),
	}
}

// NewSessionRepository creates a session repository on backend.
// The backend is owned by the caller and is not closed by Close.
func NewSessionRepository(backend *Backend) (storage.SessionRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return newSessionRepository(backend), nil
}

// Close is a no-op; the backend is closed by its owner.
func (r *SessionRepository) Close() error {
	return nil
}

// Lock acquires exclusive access to a session id.
func (r *SessionRepository) Lock(id string) func() {
	return r.locks.Lock(id)
}

// CreateSession stores a new empty session.
func (r *SessionRepository) CreateSession(ctx context.Context) (*core.ChatSession, error) {
	now := storedNow()
	session := &core.ChatSession{
		ID:        uuid.NewString(),
		Name:      core.DefaultSessionName,
		Messages:  []core.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := writeSession(tx, session); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("created session", "id", session.ID)
	return session, nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*core.ChatSession, error) {
	var result *core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSession(tx, makeSessionKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// UpdateSession replaces an existing session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session *core.ChatSession) error {
	if session == nil {
		return core.ErrInvalidArgument
	}
	if err := core.ValidateSessionID(session.ID); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(session.ID)
		old, err := readSession(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		session.CreatedAt = old.CreatedAt
		session.UpdatedAt = storedNow()
		if err := writeSession(tx, session); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteSession removes a session by ID.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSessionKey(id)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListSessions returns all sessions, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]*core.ChatSession, error) {
	var results []*core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var session *core.ChatSession
			err := iter.Item().Value(func(val []byte) error {
				var err error
				session, err = storage.UnmarshalSession(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, session)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.ChatSession) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return results, nil
}

// storedNow matches the microsecond resolution of encoded timestamps.
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func writeSession(tx *badger.Txn, session *core.ChatSession) error {
	return tx.Set(makeSessionKey(session.ID), storage.MarshalSession(session))
}

// readSession returns nil without error when the key is absent.
func readSession(tx *badger.Txn, key []byte) (*core.ChatSession, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var session *core.ChatSession
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		session, unmarshalErr = storage.UnmarshalSession(val)
		return unmarshalErr
	})
	return session, err
}
