package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pwm/internal/record"
)

// Tx is a storage session: a single SQLite transaction.
//
// Tx is not safe for concurrent use.
type Tx struct {
	tx   *sql.Tx
	done bool
}

// Begin opens a new session.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Insert adds a new record. Returns an error wrapping ErrDuplicate when the
// name (or id) is already taken.
func (t *Tx) Insert(ctx context.Context, r *record.Record) error {
	if r.Transient {
		return fmt.Errorf("insert record %q: %w", r.Name, ErrTransient)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO records
		(id, name, name_folded, salt, alphabet, key_length, username)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Name,
		foldName(r.Name),
		r.Salt,
		r.Alphabet,
		r.KeyLength,
		r.Username,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert record %q: %w", r.Name, ErrDuplicate)
		}
		return fmt.Errorf("insert record %q: %w", r.Name, err)
	}
	return nil
}

// Get retrieves a record by exact name.
// Returns an error wrapping ErrNotFound if absent.
func (t *Tx) Get(ctx context.Context, name string) (*record.Record, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, name, salt, alphabet, key_length, username
		FROM records
		WHERE name = ?
	`, name)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", name, err)
	}
	return r, nil
}

// Search returns records whose name contains query, ignoring case.
// Results are ordered by name. Returns an empty slice (not nil) if nothing
// matches.
func (t *Tx) Search(ctx context.Context, query string) ([]*record.Record, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, salt, alphabet, key_length, username
		FROM records
		WHERE instr(name_folded, ?) > 0
		ORDER BY name COLLATE BINARY ASC
	`, foldName(query))
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	records := []*record.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("search records: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Update rewrites the mutable fields (salt, username) of the record with the
// same name. Returns an error wrapping ErrNotFound if no such record exists.
func (t *Tx) Update(ctx context.Context, r *record.Record) error {
	if r.Transient {
		return fmt.Errorf("update record %q: %w", r.Name, ErrTransient)
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE records
		SET salt = ?, username = ?
		WHERE name = ?
	`, r.Salt, r.Username, r.Name)
	if err != nil {
		return fmt.Errorf("update record %q: %w", r.Name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %q: rows affected: %w", r.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("update record %q: %w", r.Name, ErrNotFound)
	}
	return nil
}

// Commit commits the session.
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the session.
func (t *Tx) Rollback() error {
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close releases the session, rolling back if it is still open. Safe to call
// more than once.
func (t *Tx) Close() error {
	if t.done {
		return nil
	}
	return t.Rollback()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*record.Record, error) {
	var r record.Record
	if err := row.Scan(&r.ID, &r.Name, &r.Salt, &r.Alphabet, &r.KeyLength, &r.Username); err != nil {
		return nil, err
	}
	return &r, nil
}
