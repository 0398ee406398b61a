package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// LexicalIndex provides BM25-ranked full-text search over chunk content.
//
// Entries hold the chunk text plus denormalised context (source title,
// container label, chunk kind) used only for ranking. Scores follow a
// "higher is more relevant" convention regardless of the engine's native sign.
type LexicalIndex interface {
	// Ensure creates the index if missing and backfills it from stored chunks.
	// Returns the number of entries written by the backfill.
	Ensure(ctx context.Context) (int, error)

	// Available reports whether the index has been created.
	Available(ctx context.Context) (bool, error)

	// Index adds an entry for the chunk.
	Index(ctx context.Context, chunk domain.Chunk) error

	// Remove deletes the entry for the chunk.
	Remove(ctx context.Context, chunkID string) error

	// Reindex replaces the entry for the chunk, refreshing its context fields.
	Reindex(ctx context.Context, chunk domain.Chunk) error

	// ReindexSource refreshes every entry of a source after its title or container changed.
	ReindexSource(ctx context.Context, sourceID string, kind domain.SourceKind) (int, error)

	// Search returns at most limit results for the kind, most relevant first,
	// ties in insertion order. Results carry BM25Score and source metadata.
	// Returns domain.ErrIndexUnavailable when the index has not been created.
	Search(ctx context.Context, query string, kind domain.SourceKind, limit int) ([]domain.SearchResult, error)
}
