package manager

import (
	"context"

	"github.com/roach88/pwm/internal/record"
	"github.com/roach88/pwm/internal/store"
)

// Backend is the persistence collaborator behind a Manager.
type Backend interface {
	// Begin opens a new session.
	Begin(ctx context.Context) (Session, error)

	// Close releases the backend.
	Close() error
}

// Session is one unit of work against a Backend. Implementations report a
// missing record with an error wrapping store.ErrNotFound and a uniqueness
// violation with one wrapping store.ErrDuplicate.
type Session interface {
	Insert(ctx context.Context, r *record.Record) error
	Get(ctx context.Context, name string) (*record.Record, error)
	Search(ctx context.Context, query string) ([]*record.Record, error)
	Update(ctx context.Context, r *record.Record) error

	Commit() error
	Rollback() error

	// Close releases the session; it must be safe after Commit or Rollback.
	Close() error
}

// sqliteBackend adapts *store.Store to Backend.
type sqliteBackend struct {
	st *store.Store
}

func (b sqliteBackend) Begin(ctx context.Context) (Session, error) {
	tx, err := b.st.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (b sqliteBackend) Close() error {
	return b.st.Close()
}
