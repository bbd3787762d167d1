// Package sqlite persists the vector index in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embeddings are stored as little-endian float32 blobs.
//
// # Data Location
//
// By default, the database is stored at ~/.ragcore/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes run in transactions and the
// database uses WAL mode.
package sqlite
