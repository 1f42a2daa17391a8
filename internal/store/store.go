package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (records without name_folded)
// 1 - Added name_folded column for case-insensitive search
const currentSchemaVersion = 1

// Schema is the definition Bootstrap applies: DDL executed verbatim, then
// migrations up to Version.
type Schema struct {
	Version int
	DDL     string
}

// DefaultSchema returns the record schema shipped with this package.
func DefaultSchema() Schema {
	return Schema{Version: currentSchemaVersion, DDL: schemaSQL}
}

// Store provides durable storage for site records.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies the
// required pragmas. It does not create any tables; see Bootstrap.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Bootstrap creates the schema if absent and runs pending migrations.
// This function is idempotent.
func (s *Store) Bootstrap(ctx context.Context, schema Schema) error {
	if _, err := s.db.ExecContext(ctx, schema.DDL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(ctx, s.db, schema.Version); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Bootstrapped reports whether the records table exists.
func (s *Store) Bootstrapped(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = 'records'
	`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check schema: %w", err)
	}
	return count > 0, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(ctx context.Context, db *sql.DB, target int) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > target {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, target)
	}

	if version < 1 && target >= 1 {
		if err := migrateToV1(ctx, db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the name_folded column to records tables created before it
// existed and backfills it. Search is a substring match, so the column is
// not indexed.
func migrateToV1(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v1: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	hasColumn, err := columnExists(ctx, tx, "records", "name_folded")
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if !hasColumn {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE records ADD COLUMN name_folded TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("migrate to v1: add column: %w", err)
		}
	}

	if err := backfillFolded(ctx, tx); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v1: commit: %w", err)
	}
	return nil
}

// backfillFolded fills name_folded for rows that predate it.
func backfillFolded(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM records WHERE name_folded = ''`)
	if err != nil {
		return fmt.Errorf("backfill: query: %w", err)
	}

	type pending struct{ id, name string }
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			rows.Close()
			return fmt.Errorf("backfill: scan: %w", err)
		}
		todo = append(todo, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("backfill: iterate: %w", err)
	}
	rows.Close()

	for _, p := range todo {
		if _, err := tx.ExecContext(ctx, `UPDATE records SET name_folded = ? WHERE id = ?`, foldName(p.name), p.id); err != nil {
			return fmt.Errorf("backfill %q: %w", p.name, err)
		}
	}
	return nil
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
