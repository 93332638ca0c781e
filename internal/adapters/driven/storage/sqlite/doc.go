// Package sqlite provides a SQLite-backed implementation of driven.SessionStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A session is stored across three tables:
//
//   - sessions: identity, title, last topic and timestamps
//   - sources: the attached documents in insertion order
//   - reports: the latest research output as a JSON document
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-research/data/sessions.db
//
// # Thread Safety
//
// All operations are thread-safe. Saves run in a transaction and SQLite
// runs in WAL mode.
package sqlite
