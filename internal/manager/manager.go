package manager

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/pwm/internal/record"
	"github.com/roach88/pwm/internal/store"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// StateUnbootstrapped means no storage is attached yet.
	StateUnbootstrapped State = iota

	// StateReady means storage is attached and its schema exists.
	StateReady
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnbootstrapped:
		return "unbootstrapped"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager is the record store facade.
//
// Manager is not safe for concurrent use; it holds at most one open session.
type Manager struct {
	backend Backend
	session Session
	ids     record.IDGenerator
	random  io.Reader
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator overrides the generator for new record IDs (for testing).
// Defaults to record.UUIDv7Generator.
func WithIDGenerator(g record.IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithRandom overrides the source salts are drawn from (for testing).
// Defaults to crypto/rand.Reader.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		m.random = r
	}
}

// ModifyOptions selects what Modify changes.
type ModifyOptions struct {
	// RegenerateSalt replaces the salt, invalidating every key derived before.
	RegenerateSalt bool

	// Username, when non-nil, overwrites the stored username.
	Username *string
}

// New returns a Manager in StateUnbootstrapped.
func New(opts ...Option) *Manager {
	m := &Manager{ids: record.UUIDv7Generator{}, random: rand.Reader}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewWithBackend returns a Manager in StateReady over an already prepared
// backend.
func NewWithBackend(b Backend, opts ...Option) *Manager {
	m := New(opts...)
	m.backend = b
	return m
}

// Open returns a Manager for the store at path. If path holds a bootstrapped
// store the Manager is Ready (pending migrations are applied); if nothing
// exists at path it is Unbootstrapped and no file is created.
func Open(ctx context.Context, path string, opts ...Option) (*Manager, error) {
	m := New(opts...)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return m, nil
	} else if err != nil {
		return nil, storageFailure("open", "", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, storageFailure("open", "", err)
	}

	ok, err := st.Bootstrapped(ctx)
	if err != nil {
		st.Close()
		return nil, storageFailure("open", "", err)
	}
	if !ok {
		st.Close()
		return m, nil
	}

	if err := st.Bootstrap(ctx, store.DefaultSchema()); err != nil {
		st.Close()
		return nil, storageFailure("open", "", err)
	}

	m.backend = sqliteBackend{st: st}
	return m, nil
}

// Bootstrap creates the store at path if absent, applies the schema, and
// moves the Manager to StateReady. Calling it on existing storage is a no-op
// apart from pending migrations.
func (m *Manager) Bootstrap(ctx context.Context, path string) error {
	st, err := store.Open(path)
	if err != nil {
		return storageFailure("bootstrap", "", err)
	}

	if err := st.Bootstrap(ctx, store.DefaultSchema()); err != nil {
		st.Close()
		return storageFailure("bootstrap", "", err)
	}

	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			slog.Warn("closing previous backend failed", "error", err)
		}
	}
	m.backend = sqliteBackend{st: st}
	slog.Debug("store bootstrapped", "path", path)
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	if m.backend == nil {
		return StateUnbootstrapped
	}
	return StateReady
}

// Close releases the backend and returns the Manager to StateUnbootstrapped.
func (m *Manager) Close() error {
	if m.backend == nil {
		return nil
	}
	err := m.backend.Close()
	m.backend = nil
	if err != nil {
		return storageFailure("close", "", err)
	}
	return nil
}

// Create stores a new record with a fresh salt.
//
// Only a uniqueness violation becomes KindDuplicateName; other insert faults
// are KindStorageFailure, as is a failing salt source. Invalid options fail
// with the record package's validation errors before storage is touched.
//
// The name is stored and hashed exactly as given.
func (m *Manager) Create(ctx context.Context, name string, opts record.Options) (*record.Record, error) {
	const op = "create"
	if err := m.checkReady(op); err != nil {
		return nil, err
	}

	r, err := record.NewFrom(name, opts, m.random)
	if errors.Is(err, record.ErrSaltGeneration) {
		return nil, storageFailure(op, name, err)
	}
	if err != nil {
		return nil, err
	}
	r.ID = m.ids.Generate()

	err = m.withSession(ctx, op, func(s Session) error {
		if err := s.Insert(ctx, r); err != nil {
			return classify(op, name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the record with exactly this name.
func (m *Manager) Get(ctx context.Context, name string) (*record.Record, error) {
	const op = "get"

	var r *record.Record
	err := m.withSession(ctx, op, func(s Session) error {
		var err error
		r, err = s.Get(ctx, name)
		if err != nil {
			return classify(op, name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Search returns the records whose name contains query, ignoring case. The
// result may be empty.
func (m *Manager) Search(ctx context.Context, query string) ([]*record.Record, error) {
	const op = "search"

	var records []*record.Record
	err := m.withSession(ctx, op, func(s Session) error {
		var err error
		records, err = s.Search(ctx, query)
		if err != nil {
			return classify(op, "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Modify fetches the record, applies opts, and stores it.
func (m *Manager) Modify(ctx context.Context, name string, opts ModifyOptions) (*record.Record, error) {
	const op = "modify"

	var r *record.Record
	err := m.withSession(ctx, op, func(s Session) error {
		var err error
		r, err = s.Get(ctx, name)
		if err != nil {
			return classify(op, name, err)
		}

		if opts.RegenerateSalt {
			if err := r.RegenerateSaltFrom(m.random); err != nil {
				return storageFailure(op, name, err)
			}
			slog.Info("salt regenerated, previously derived keys are invalid", "name", name)
		}
		if opts.Username != nil {
			r.Username = *opts.Username
		}

		if err := s.Update(ctx, r); err != nil {
			return classify(op, name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Transient builds a record around a salt obtained elsewhere, such as from a
// remote salt service. It never touches storage and works in any state.
func (m *Manager) Transient(name, salt string, opts record.Options) (*record.Record, error) {
	return record.NewTransient(name, salt, opts)
}

// withSession runs fn inside a session. A session is opened if none is open.
// The session is committed if fn succeeds, rolled back otherwise (including
// panics), and always closed before returning.
func (m *Manager) withSession(ctx context.Context, op string, fn func(Session) error) (err error) {
	if err := m.checkReady(op); err != nil {
		return err
	}

	if m.session == nil {
		s, err := m.backend.Begin(ctx)
		if err != nil {
			return storageFailure(op, "", err)
		}
		m.session = s
		slog.Debug("session opened", "op", op)
	}
	session := m.session

	committed := false
	defer func() {
		if !committed {
			if rbErr := session.Rollback(); rbErr != nil {
				slog.Warn("session rollback failed", "op", op, "error", rbErr)
			} else {
				slog.Debug("session rolled back", "op", op)
			}
		}
		if closeErr := session.Close(); closeErr != nil {
			slog.Warn("session close failed", "op", op, "error", closeErr)
			if err == nil {
				err = &Error{Kind: KindStorageFailure, Op: op}
			}
		}
		m.session = nil
	}()

	if err := fn(session); err != nil {
		return err
	}

	if err := session.Commit(); err != nil {
		return storageFailure(op, "", err)
	}
	committed = true
	slog.Debug("session committed", "op", op)
	return nil
}

func (m *Manager) checkReady(op string) error {
	if m.backend == nil {
		return &Error{Kind: KindNotReady, Op: op}
	}
	return nil
}

// classify maps a storage error to the facade taxonomy.
func classify(op, name string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNoSuchRecord, Op: op, Name: name}
	case errors.Is(err, store.ErrDuplicate):
		slog.Warn("inserting new record failed", "op", op, "name", name, "error", err)
		return &Error{Kind: KindDuplicateName, Op: op, Name: name}
	default:
		return storageFailure(op, name, err)
	}
}

// storageFailure logs the driver detail and returns an error without it.
func storageFailure(op, name string, err error) error {
	slog.Warn("storage failure", "op", op, "name", name, "error", err)
	return &Error{Kind: KindStorageFailure, Op: op, Name: name}
}
