package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no record has the requested name.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate record")

	// ErrTransient is returned when a transient record is handed to a write.
	ErrTransient = errors.New("store: transient records are not persisted")
)

// isUniqueViolation reports whether err is SQLite rejecting a UNIQUE or
// PRIMARY KEY constraint. Other constraint failures (CHECK, NOT NULL) are not
// uniqueness violations.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
