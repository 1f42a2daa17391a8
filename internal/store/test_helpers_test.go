package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/pwm/internal/record"
)

// createTestStore creates a new bootstrapped store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Bootstrap(context.Background(), DefaultSchema()); err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	return s
}

// createTestRecord creates a record with a fixed salt and the default alphabet.
func createTestRecord(id, name, salt string) *record.Record {
	return &record.Record{
		ID:        id,
		Name:      name,
		Salt:      salt,
		Alphabet:  "abcdefghijklmnopqrstuvwxyz0123456789",
		KeyLength: 16,
	}
}

// insertCommitted inserts records in their own committed session.
func insertCommitted(t *testing.T, s *Store, records ...*record.Record) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Close()
	for _, r := range records {
		if err := tx.Insert(ctx, r); err != nil {
			t.Fatalf("Insert(%q) failed: %v", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

func countRecords(t *testing.T, s *Store) int {
	t.Helper()
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
