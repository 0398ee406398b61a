package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// EmbeddingJobService generates and stores chunk embeddings.
type EmbeddingJobService interface {
	// EmbedChunks embeds the given chunks with per-item error isolation.
	EmbedChunks(ctx context.Context, chunks []domain.Chunk) (*domain.BatchReport, error)

	// EmbedPending embeds every chunk of the kind (all kinds when empty)
	// that has no embedding for the configured model.
	EmbedPending(ctx context.Context, kind domain.SourceKind) (*domain.BatchReport, error)

	// TestConnection embeds a fixed probe string and reports the outcome.
	TestConnection(ctx context.Context) domain.ConnectionStatus

	// Available returns true if an embedding provider is configured.
	Available() bool
}
