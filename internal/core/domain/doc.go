// Package domain defines the core business entities for recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A searchable window of source text
//   - Embedding: A chunk's vector under one model
//   - Conversation, Message, Document: The sources chunks are cut from
//   - SearchResult: A ranked chunk carrying optional per-signal scores
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
