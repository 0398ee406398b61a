// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SourceStore: Conversations, messages, documents and containers
//   - ChunkStore: Chunk persistence
//   - EmbeddingStore: Embedding persistence (little-endian float32 blobs)
//   - LexicalIndex: BM25 search over an FTS5 virtual table
//
// # Schema
//
// The relational schema is managed through versioned migrations stored in the
// migrations/ directory. The FTS5 table is deliberately not part of the
// migrations: it is created by LexicalIndex.Ensure, a separate setup step.
// Until then keyword search reports domain.ErrIndexUnavailable.
//
// # Lexical Consistency
//
// Chunk inserts and deletes update the FTS5 table in the same transaction
// when the table exists, so a chunk is never stored without its index entry.
//
// # Data Location
//
// By default, the database is stored at ~/.recall/data/recall.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
