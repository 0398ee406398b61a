package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ChunkingService turns stored sources into persisted chunks.
type ChunkingService interface {
	// ChunkSource splits a source into chunks, stores them and embeds them
	// best effort. Returns domain.ErrChunking for an empty source.
	ChunkSource(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error)

	// RechunkSource deletes the source's chunks (and their embeddings and
	// lexical entries) and chunks it again.
	RechunkSource(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error)

	// ChunkAll chunks every source of the kind that has no chunks yet.
	// Per-source failures are recorded in the report, not returned.
	ChunkAll(ctx context.Context, kind domain.SourceKind) (*domain.ChunkReport, error)
}
