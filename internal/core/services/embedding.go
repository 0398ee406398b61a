package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/metrics"
	"github.com/custodia-labs/recall/internal/tracing"
)

// Ensure EmbeddingJobService implements the interface.
var _ driving.EmbeddingJobService = (*EmbeddingJobService)(nil)

// probeText is embedded by TestConnection.
const probeText = "test"

// EmbeddingJobService generates embeddings for stored chunks.
//
// Chunks are sent to the provider in batches. When a batch call fails,
// each of its chunks is retried on its own so that one bad input only
// costs that input; every failure is recorded in the returned report.
type EmbeddingJobService struct {
	embedder   driven.EmbeddingService
	chunks     driven.ChunkStore
	embeddings driven.EmbeddingStore
	batchSize  int
	now        func() time.Time
}

// NewEmbeddingJobService creates a new embedding job service.
// The embedder parameter is optional (can be nil); without it every job
// returns domain.ErrEmbeddingUnavailable.
func NewEmbeddingJobService(
	embedder driven.EmbeddingService,
	chunks driven.ChunkStore,
	embeddings driven.EmbeddingStore,
	batchSize int,
) *EmbeddingJobService {
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbedBatchSize
	}
	return &EmbeddingJobService{
		embedder:   embedder,
		chunks:     chunks,
		embeddings: embeddings,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Available returns true if an embedding provider is configured.
func (s *EmbeddingJobService) Available() bool {
	return s.embedder != nil
}

// EmbedChunks embeds and stores the given chunks.
func (s *EmbeddingJobService) EmbedChunks(ctx context.Context, chunks []domain.Chunk) (*domain.BatchReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	ctx, span := tracing.StartSpan(ctx, "embedding.job",
		attribute.Int("embedding.chunks", len(chunks)),
		attribute.String("embedding.model", s.embedder.ModelName()))

	report := &domain.BatchReport{Requested: len(chunks)}
	var err error
	for start := 0; start < len(chunks); start += s.batchSize {
		if err = ctx.Err(); err != nil {
			break
		}
		end := min(start+s.batchSize, len(chunks))
		s.embedBatch(ctx, chunks[start:end], report)
	}

	metrics.AddEmbeddedChunks(report.Succeeded, report.Failed())
	span.SetAttributes(attribute.Int("embedding.failed", report.Failed()))
	tracing.End(span, err)

	if report.Failed() > 0 {
		logger.Info("Embedded %d of %d chunks, %d failed", report.Succeeded, report.Requested, report.Failed())
	}
	return report, err
}

// EmbedPending embeds every chunk that has no embedding for the configured model.
func (s *EmbeddingJobService) EmbedPending(ctx context.Context, kind domain.SourceKind) (*domain.BatchReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, kind)
	}

	pending, err := s.chunks.ListUnembedded(ctx, kind, s.embedder.ModelName())
	if err != nil {
		return nil, fmt.Errorf("list unembedded chunks: %w", err)
	}
	logger.Debug("%d chunks pending embedding", len(pending))

	return s.EmbedChunks(ctx, pending)
}

// TestConnection embeds a fixed probe string and reports the outcome.
func (s *EmbeddingJobService) TestConnection(ctx context.Context) domain.ConnectionStatus {
	status := domain.ConnectionStatus{ProbeText: probeText}
	if s.embedder == nil {
		status.Error = domain.ErrEmbeddingUnavailable.Error()
		return status
	}
	status.Model = s.embedder.ModelName()

	vec, err := s.call(ctx, []string{probeText})
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.OK = true
	status.Dimension = len(vec[0])
	return status
}

// embedBatch embeds one batch, falling back to one call per chunk when the
// batch call fails.
func (s *EmbeddingJobService) embedBatch(ctx context.Context, batch []domain.Chunk, report *domain.BatchReport) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	vecs, err := s.call(ctx, texts)
	if err == nil {
		for i, c := range batch {
			s.store(ctx, c, vecs[i], report)
		}
		return
	}

	if len(batch) > 1 {
		logger.Debug("Batch of %d failed (%v), retrying items individually", len(batch), err)
		for _, c := range batch {
			if ctx.Err() != nil {
				s.fail(report, c.ID, ctx.Err())
				continue
			}
			vec, itemErr := s.call(ctx, []string{c.Content})
			if itemErr != nil {
				s.fail(report, c.ID, itemErr)
				continue
			}
			s.store(ctx, c, vec[0], report)
		}
		return
	}
	s.fail(report, batch[0].ID, err)
}

// call sends one provider request and records it.
func (s *EmbeddingJobService) call(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vecs) != len(texts) {
		err = &domain.EmbeddingError{
			Provider: s.embedder.ModelName(),
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vecs)),
		}
	}
	metrics.ObserveEmbeddingCall(err, time.Since(start))
	return vecs, err
}

// store persists one embedding and updates the report.
func (s *EmbeddingJobService) store(ctx context.Context, chunk domain.Chunk, vec []float32, report *domain.BatchReport) {
	embedding := domain.Embedding{
		ChunkID:   chunk.ID,
		Vector:    vec,
		ModelName: s.embedder.ModelName(),
		Dimension: s.embedder.Dimensions(),
		CreatedAt: s.now(),
	}
	if err := s.embeddings.SaveEmbedding(ctx, embedding); err != nil {
		s.fail(report, chunk.ID, fmt.Errorf("save embedding: %w", err))
		return
	}
	report.Succeeded++
}

func (s *EmbeddingJobService) fail(report *domain.BatchReport, chunkID string, err error) {
	l := logger.L()
	l.Warn().Err(err).Str("chunk_id", chunkID).Msg("embedding failed")
	report.Failures = append(report.Failures, domain.EmbeddingFailure{ChunkID: chunkID, Err: err})
}
