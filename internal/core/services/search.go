package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/metrics"
	"github.com/custodia-labs/recall/internal/tracing"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// oversample is how many candidates hybrid search takes from each signal
// per requested result.
const oversample = 2

// SearchService provides keyword, semantic and hybrid search.
type SearchService struct {
	lexical  driven.LexicalIndex
	chunks   driven.ChunkStore
	vectors  *VectorIndexManager
	embedder driven.EmbeddingService

	weights      domain.Weights
	defaultLimit int
	lazyBuild    bool
}

// SearchOption configures a SearchService.
type SearchOption func(*SearchService)

// WithDefaultWeights sets the fusion weights used when a query has none.
func WithDefaultWeights(w domain.Weights) SearchOption {
	return func(s *SearchService) {
		s.weights = w
	}
}

// WithDefaultLimit sets the result limit used when a query has none.
func WithDefaultLimit(limit int) SearchOption {
	return func(s *SearchService) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithLazyBuild makes the first semantic query build the vector index if
// it has never been built.
func WithLazyBuild(enabled bool) SearchOption {
	return func(s *SearchService) {
		s.lazyBuild = enabled
	}
}

// NewSearchService creates a new search service.
// The vectors and embedder parameters are optional (can be nil); without
// them only keyword search is available.
func NewSearchService(
	lexical driven.LexicalIndex,
	chunks driven.ChunkStore,
	vectors *VectorIndexManager,
	embedder driven.EmbeddingService,
	opts ...SearchOption,
) *SearchService {
	s := &SearchService{
		lexical:      lexical,
		chunks:       chunks,
		vectors:      vectors,
		embedder:     embedder,
		weights:      domain.DefaultWeights(),
		defaultLimit: domain.DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search dispatches to the entry point for mode.
func (s *SearchService) Search(
	ctx context.Context, query string, mode domain.SearchMode, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	switch mode {
	case domain.SearchModeHybrid, "":
		return s.HybridSearch(ctx, query, opts)
	case domain.SearchModeKeyword:
		return s.KeywordSearch(ctx, query, opts)
	case domain.SearchModeSemantic:
		return s.SemanticSearch(ctx, query, opts)
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, mode)
	}
}

// KeywordSearch ranks chunks by BM25 alone. Before the lexical index has
// been created it returns an empty list.
func (s *SearchService) KeywordSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (results []domain.SearchResult, err error) {
	ctx, done := s.observe(ctx, domain.SearchModeKeyword, query, opts)
	defer func() { done(err) }()

	query, limit, err := s.prepare(query, opts)
	if err != nil || query == "" {
		return []domain.SearchResult{}, err
	}

	results, err = s.keyword(ctx, query, opts.Kind, limit)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		logger.Warn("Lexical index has not been created; run setup")
		return []domain.SearchResult{}, nil
	}
	return results, err
}

// SemanticSearch ranks chunks by cosine similarity alone. Before the vector
// index has been built it returns an empty list.
func (s *SearchService) SemanticSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (results []domain.SearchResult, err error) {
	ctx, done := s.observe(ctx, domain.SearchModeSemantic, query, opts)
	defer func() { done(err) }()

	query, limit, err := s.prepare(query, opts)
	if err != nil || query == "" {
		return []domain.SearchResult{}, err
	}
	if s.embedder == nil || s.vectors == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	results, err = s.semantic(ctx, query, opts.Kind, limit)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		logger.Warn("Vector index has not been built; run index rebuild")
		return []domain.SearchResult{}, nil
	}
	return results, err
}

// HybridSearch queries both signals concurrently and fuses them. When one
// signal is unusable the other is ranked alone, with the missing score
// counted as 0. Fails with domain.ErrSearchUnavailable only when neither
// signal can be used.
func (s *SearchService) HybridSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (results []domain.SearchResult, err error) {
	ctx, done := s.observe(ctx, domain.SearchModeHybrid, query, opts)
	defer func() { done(err) }()

	query, limit, err := s.prepare(query, opts)
	if err != nil || query == "" {
		return []domain.SearchResult{}, err
	}
	weights := opts.WeightsOver(s.weights)

	candidates := oversample * limit
	var lexical, semantic []domain.SearchResult
	var lexErr, semErr error

	// Each side records its own error so one failure never cancels the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexical, lexErr = s.keyword(gctx, query, opts.Kind, candidates)
		return nil
	})
	g.Go(func() error {
		if s.embedder == nil || s.vectors == nil {
			semErr = domain.ErrEmbeddingUnavailable
			return nil
		}
		semantic, semErr = s.semantic(gctx, query, opts.Kind, candidates)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case lexErr != nil && semErr != nil:
		return nil, fmt.Errorf("%w: lexical: %w; semantic: %w", domain.ErrSearchUnavailable, lexErr, semErr)
	case lexErr != nil:
		logger.Warn("Lexical search unavailable, ranking by semantic similarity only: %v", lexErr)
		metrics.IncDegraded("lexical")
	case semErr != nil:
		logger.Warn("Semantic search unavailable, ranking by BM25 only: %v", semErr)
		metrics.IncDegraded("semantic")
	}

	logger.Debug("Fusing %d lexical and %d semantic candidates (weights %.2f/%.2f)",
		len(lexical), len(semantic), weights.BM25, weights.Cosine)
	return FuseWeighted(lexical, semantic, weights, limit), nil
}

// SearchAll runs a hybrid search for each kind in scope.
func (s *SearchService) SearchAll(
	ctx context.Context, query string, limit int, scope domain.SearchScope,
) (map[domain.SourceKind][]domain.SearchResult, error) {
	kinds := scope.Kinds()
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: unknown search scope %q", domain.ErrInvalidInput, scope)
	}

	grouped := make(map[domain.SourceKind][]domain.SearchResult, len(kinds))
	for _, kind := range kinds {
		results, err := s.HybridSearch(ctx, query, domain.SearchOptions{Limit: limit, Kind: kind})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", kind, err)
		}
		grouped[kind] = results
	}
	return grouped, nil
}

// RebuildVectorIndex rebuilds the vector index from stored embeddings.
func (s *SearchService) RebuildVectorIndex(ctx context.Context) (*domain.IndexStats, error) {
	if s.vectors == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.vectors.Rebuild(ctx)
}

// SetupLexicalIndex creates the lexical index if it is missing and
// backfills it from stored chunks.
func (s *SearchService) SetupLexicalIndex(ctx context.Context) (int, error) {
	if s.lexical == nil {
		return 0, domain.ErrIndexUnavailable
	}
	n, err := s.lexical.Ensure(ctx)
	if err != nil {
		return 0, fmt.Errorf("setup lexical index: %w", err)
	}
	logger.Info("Lexical index ready, %d entries backfilled", n)
	return n, nil
}

// IndexStats reports the last successful rebuild.
func (s *SearchService) IndexStats() *domain.IndexStats {
	if s.vectors == nil {
		return nil
	}
	return s.vectors.Stats()
}

// prepare trims the query and resolves the limit. An empty query is valid
// and yields no results.
func (s *SearchService) prepare(query string, opts domain.SearchOptions) (string, int, error) {
	if opts.Kind != "" && !opts.Kind.IsValid() {
		return "", 0, fmt.Errorf("%w: unknown search type %q", domain.ErrInvalidInput, opts.Kind)
	}
	if w := opts.WeightsOver(domain.Weights{}); !finite(w.BM25) || !finite(w.Cosine) {
		return "", 0, fmt.Errorf("%w: weights must be finite numbers", domain.ErrInvalidInput)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = min(limit, domain.MaxSearchLimit)
	return strings.TrimSpace(query), limit, nil
}

// keyword returns up to limit lexical results.
func (s *SearchService) keyword(
	ctx context.Context, query string, kind domain.SourceKind, limit int,
) ([]domain.SearchResult, error) {
	if s.lexical == nil {
		return nil, domain.ErrIndexUnavailable
	}
	results, err := s.lexical.Search(ctx, query, kind, limit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Keyword search returned %d results", len(results))
	return results, nil
}

// semantic embeds the query and returns up to limit results with metadata.
func (s *SearchService) semantic(
	ctx context.Context, query string, kind domain.SourceKind, limit int,
) ([]domain.SearchResult, error) {
	if s.lazyBuild {
		if err := s.vectors.EnsureBuilt(ctx); err != nil {
			return nil, err
		}
	}
	if !s.vectors.Built() {
		return nil, domain.ErrIndexUnavailable
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vec, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return []domain.SearchResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	rows, err := s.chunks.DescribeChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunk metadata: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		r, ok := rows[h.ChunkID]
		if !ok {
			// Deleted since the last rebuild.
			logger.Debug("Skipping stale vector hit %s", h.ChunkID)
			continue
		}
		r.CosineScore = domain.Float64Ptr(h.Similarity)
		results = append(results, r)
	}
	logger.Debug("Semantic search returned %d results", len(results))
	return results, nil
}

// observe starts a span for one search call and returns a function that
// ends it and records metrics.
func (s *SearchService) observe(
	ctx context.Context, mode domain.SearchMode, query string, opts domain.SearchOptions,
) (context.Context, func(error)) {
	logger.Section(mode.Description())
	logger.Debug("Query: %q, kind: %q, limit: %d", query, opts.Kind, opts.Limit)

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "search."+mode.String(),
		attribute.String("search.kind", opts.Kind.String()),
		attribute.Int("search.limit", opts.Limit))
	return ctx, func(err error) {
		metrics.ObserveSearch(mode.String(), err, time.Since(start))
		tracing.End(span, err)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
