// Package store provides SQLite-backed storage for site records.
//
// The store holds one table, records, keyed by a UUIDv7 id with a UNIQUE
// constraint on name. Secrets and derived keys never reach this package.
//
// # Lifecycle
//
// Open connects to the database file and applies pragmas but creates nothing.
// Bootstrap applies an explicit Schema (the embedded schema.sql plus
// user_version migrations) and is idempotent.
//
// # Sessions
//
// All reads and writes go through a Tx obtained from Begin. A Tx must end in
// Commit or Rollback; Close rolls back whatever is still open and is safe to
// call after either.
//
// # Search
//
// Names are matched case-insensitively through the name_folded column, which
// holds the Unicode case fold of name (golang.org/x/text/cases). SQLite's own
// LIKE and lower() only fold ASCII.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
