package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure ChunkingService implements the interface.
var _ driving.ChunkingService = (*ChunkingService)(nil)

// ChunkingService splits sources into chunks and stores them.
// Chunks are embedded right after they are stored when an embedder is set.
type ChunkingService struct {
	sources  driven.SourceReader
	chunks   driven.ChunkStore
	splitter driven.Splitter
	embedder driving.EmbeddingJobService
}

// NewChunkingService creates a new chunking service.
// The embedder parameter is optional (can be nil).
func NewChunkingService(
	sources driven.SourceReader,
	chunks driven.ChunkStore,
	splitter driven.Splitter,
	embedder driving.EmbeddingJobService,
) *ChunkingService {
	return &ChunkingService{
		sources:  sources,
		chunks:   chunks,
		splitter: splitter,
		embedder: embedder,
	}
}

// ChunkSource splits a source into chunks, stores them and embeds them best effort.
// A source that already has chunks must be rechunked instead.
func (s *ChunkingService) ChunkSource(
	ctx context.Context, sourceID string, kind domain.SourceKind,
) ([]domain.Chunk, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	existing, err := s.chunks.CountChunks(ctx, sourceID, kind)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%s %s has %d chunks: %w", kind, sourceID, existing, domain.ErrAlreadyExists)
	}

	chunks, err := s.split(ctx, sourceID, kind)
	if err != nil {
		return nil, err
	}
	if err := s.chunks.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}
	logger.Debug("Chunked %s %s into %d chunks", kind, sourceID, len(chunks))

	s.embed(ctx, chunks)
	return chunks, nil
}

// RechunkSource replaces a source's chunks. The new chunks are computed
// first and swapped in with a single store call, so a source that fails to
// split or save keeps its previous chunks.
func (s *ChunkingService) RechunkSource(
	ctx context.Context, sourceID string, kind domain.SourceKind,
) ([]domain.Chunk, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	chunks, err := s.split(ctx, sourceID, kind)
	if err != nil {
		return nil, err
	}

	removed, err := s.chunks.ReplaceChunks(ctx, sourceID, kind, chunks)
	if err != nil {
		return nil, fmt.Errorf("replace chunks: %w", err)
	}
	logger.Debug("Rechunked %s %s: removed %d, created %d", kind, sourceID, removed, len(chunks))

	s.embed(ctx, chunks)
	return chunks, nil
}

// ChunkAll chunks every source of the kind that has no chunks yet.
// Sources that fail are logged and recorded in the report.
func (s *ChunkingService) ChunkAll(ctx context.Context, kind domain.SourceKind) (*domain.ChunkReport, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	ids, err := s.sources.ListSourceIDs(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	report := &domain.ChunkReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunks, err := s.ChunkSource(ctx, id, kind)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			report.Skipped++
		case err != nil:
			l := logger.L()
			l.Warn().Err(err).Str("source_id", id).Str("kind", kind.String()).Msg("skipping source")
			report.Failed = append(report.Failed, domain.ChunkFailure{SourceID: id, Err: err})
		default:
			report.Processed++
			report.Chunks += len(chunks)
		}
	}

	logger.Info("Chunked %d %s sources into %d chunks (%d skipped, %d failed)",
		report.Processed, kind, report.Chunks, report.Skipped, len(report.Failed))
	return report, nil
}

// split loads a source's text units and runs the splitter over them.
func (s *ChunkingService) split(ctx context.Context, sourceID string, kind domain.SourceKind) ([]domain.Chunk, error) {
	units, err := s.sources.TextUnits(ctx, sourceID, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, sourceID, err)
	}

	chunks, err := s.splitter.Process(ctx, sourceID, kind, units)
	if err != nil {
		return nil, fmt.Errorf("split %s %s: %w", kind, sourceID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s %s has no text", domain.ErrChunking, kind, sourceID)
	}
	return chunks, nil
}

// embed generates embeddings for new chunks. Failures are logged; the
// chunks stay searchable lexically and can be embedded later.
func (s *ChunkingService) embed(ctx context.Context, chunks []domain.Chunk) {
	if s.embedder == nil || !s.embedder.Available() {
		return
	}
	report, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		logger.Warn("Embedding new chunks failed: %v", err)
		return
	}
	if report.Failed() > 0 {
		logger.Warn("%d of %d new chunks were not embedded", report.Failed(), report.Requested)
	}
}
