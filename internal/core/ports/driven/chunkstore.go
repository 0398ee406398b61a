package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ChunkStore persists chunks.
//
// Chunk writes and deletes are transactionally coupled to the lexical index:
// when the index exists, its entries change in the same transaction, and an
// index failure rolls back the chunk write and is returned to the caller.
type ChunkStore interface {
	// SaveChunks stores chunks (and their lexical entries) atomically.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves a source's chunks ordered by sequence index.
	GetChunks(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error)

	// CountChunks returns how many chunks a source has.
	CountChunks(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error)

	// DeleteChunks removes a source's chunks, cascading to their embeddings
	// and lexical entries. Returns the number of chunks removed.
	DeleteChunks(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error)

	// ReplaceChunks deletes a source's chunks and saves the new set atomically.
	// On error the old chunks are kept. Returns the number of chunks removed.
	ReplaceChunks(ctx context.Context, sourceID string, kind domain.SourceKind, chunks []domain.Chunk) (int, error)

	// ListUnembedded returns chunks of the kind with no embedding for the model.
	// An empty kind lists all kinds.
	ListUnembedded(ctx context.Context, kind domain.SourceKind, model string) ([]domain.Chunk, error)

	// DescribeChunks returns result rows (content plus source metadata, no scores)
	// for the given chunk IDs, keyed by ID. Unknown IDs are omitted.
	DescribeChunks(ctx context.Context, ids []string) (map[string]domain.SearchResult, error)
}

// EmbeddingStore persists chunk embeddings.
type EmbeddingStore interface {
	// SaveEmbedding stores or replaces the embedding for (chunk, model).
	// A vector whose length differs from Dimension is rejected.
	SaveEmbedding(ctx context.Context, embedding domain.Embedding) error

	// GetEmbedding retrieves the embedding for a chunk under a model.
	GetEmbedding(ctx context.Context, chunkID, model string) (*domain.Embedding, error)

	// ListEmbeddings returns every embedding for the model across all kinds.
	// Vectors are decoded from their raw bytes without truncation or padding,
	// so a corrupt record surfaces as a Dimension that disagrees with the vector.
	ListEmbeddings(ctx context.Context, model string) ([]IndexedEmbedding, error)

	// CountEmbeddings returns how many embeddings exist for the model.
	CountEmbeddings(ctx context.Context, model string) (int, error)
}

// IndexedEmbedding pairs an embedding with its chunk's kind.
type IndexedEmbedding struct {
	domain.Embedding
	Kind domain.SourceKind
}
