package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
// The index is a rebuildable in-memory cache, never authoritative storage.
// Build replaces the contents wholesale; there is no incremental add.
type VectorIndex interface {
	// Build L2-normalises every entry and replaces the index contents.
	// Entries whose length differs from Dimensions are rejected.
	Build(ctx context.Context, entries []VectorEntry) error

	// Search normalises the query and returns the k most similar entries
	// of the given kind (all kinds when kind is empty), most similar first.
	// An index that was never built returns an empty list.
	Search(ctx context.Context, query []float32, kind domain.SourceKind, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size the index accepts.
	Dimensions() int
}

// VectorEntry is one vector handed to Build.
type VectorEntry struct {
	ChunkID string
	Kind    domain.SourceKind
	Vector  []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
