// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SourceStore: Conversations, messages, documents and containers
//   - ChunkStore: Chunk persistence, transactionally coupled to the lexical index
//   - EmbeddingStore: Embedding persistence
//   - LexicalIndex: BM25 full-text search (SQLite FTS5)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it semantic search is disabled.
//   - VectorIndex: In-memory similarity search. Only useful once embeddings exist.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
