package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/metrics"
	"github.com/custodia-labs/recall/internal/tracing"
)

// VectorIndexManager owns the in-memory vector index. It serialises
// rebuilds and tracks whether the index has ever been built.
//
// The index itself swaps snapshots atomically, so searches may run while a
// rebuild is in flight and see either the old or the new contents.
type VectorIndexManager struct {
	index      driven.VectorIndex
	embeddings driven.EmbeddingStore
	model      string

	rebuildMu sync.Mutex

	mu    sync.RWMutex
	stats *domain.IndexStats

	now func() time.Time
}

// NewVectorIndexManager creates a manager that rebuilds index from the
// embeddings stored for model.
func NewVectorIndexManager(index driven.VectorIndex, embeddings driven.EmbeddingStore, model string) *VectorIndexManager {
	return &VectorIndexManager{
		index:      index,
		embeddings: embeddings,
		model:      model,
		now:        time.Now,
	}
}

// Rebuild replaces the index with every stored embedding for the model.
// Embeddings whose vector length disagrees with the index dimension are
// skipped and logged. Returns domain.ErrRebuildInProgress without waiting
// when another rebuild is running.
func (m *VectorIndexManager) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	if !m.rebuildMu.TryLock() {
		return nil, domain.ErrRebuildInProgress
	}
	defer m.rebuildMu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "vectorindex.rebuild",
		attribute.String("embedding.model", m.model))
	start := m.now()

	stats, err := m.rebuild(ctx)
	elapsed := m.now().Sub(start)

	entries := 0
	if stats != nil {
		entries = stats.Entries
		span.SetAttributes(attribute.Int("vectorindex.entries", stats.Entries),
			attribute.Int("vectorindex.skipped", stats.Skipped))
	}
	metrics.ObserveRebuild(entries, err, elapsed)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	stats.Duration = elapsed
	stats.BuiltAt = m.now()

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()

	logger.Info("Vector index rebuilt: %d entries, %d skipped, in %s", stats.Entries, stats.Skipped, elapsed)
	snapshot := *stats
	return &snapshot, nil
}

func (m *VectorIndexManager) rebuild(ctx context.Context) (*domain.IndexStats, error) {
	stored, err := m.embeddings.ListEmbeddings(ctx, m.model)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}

	dim := m.index.Dimensions()
	stats := &domain.IndexStats{Dimension: dim}
	entries := make([]driven.VectorEntry, 0, len(stored))
	for _, e := range stored {
		if len(e.Vector) != dim || e.Dimension != len(e.Vector) {
			l := logger.L()
			l.Warn().
				Str("chunk_id", e.ChunkID).
				Int("declared", e.Dimension).
				Int("actual", len(e.Vector)).
				Int("expected", dim).
				Msg("skipping embedding with mismatched dimension")
			stats.Skipped++
			continue
		}
		entries = append(entries, driven.VectorEntry{ChunkID: e.ChunkID, Kind: e.Kind, Vector: e.Vector})
	}

	if err := m.index.Build(ctx, entries); err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}
	stats.Entries = len(entries)
	return stats, nil
}

// EnsureBuilt builds the index if it has never been built. A concurrent
// rebuild counts as unavailable rather than blocking the caller.
func (m *VectorIndexManager) EnsureBuilt(ctx context.Context) error {
	if m.Built() {
		return nil
	}
	_, err := m.Rebuild(ctx)
	if errors.Is(err, domain.ErrRebuildInProgress) {
		return domain.ErrIndexUnavailable
	}
	return err
}

// Search queries the index. Returns domain.ErrIndexUnavailable if the index
// has never been built.
func (m *VectorIndexManager) Search(
	ctx context.Context, query []float32, kind domain.SourceKind, k int,
) ([]driven.VectorHit, error) {
	if !m.Built() {
		return nil, domain.ErrIndexUnavailable
	}
	return m.index.Search(ctx, query, kind, k)
}

// Built reports whether a rebuild has completed.
func (m *VectorIndexManager) Built() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats != nil
}

// Stats returns the last successful rebuild, or nil.
func (m *VectorIndexManager) Stats() *domain.IndexStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats == nil {
		return nil
	}
	snapshot := *m.stats
	return &snapshot
}
