package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	stats    *domain.IndexStats
	lastMode domain.SearchMode
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) HybridSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeHybrid, opts)
}

func (m *mockSearchService) KeywordSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeKeyword, opts)
}

func (m *mockSearchService) SemanticSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.Search(ctx, query, domain.SearchModeSemantic, opts)
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	mode domain.SearchMode,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastMode = mode
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) SearchAll(
	_ context.Context, _ string, _ int, _ domain.SearchScope,
) (map[domain.SourceKind][]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockSearchService) RebuildVectorIndex(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockSearchService) SetupLexicalIndex(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockSearchService) IndexStats() *domain.IndexStats {
	return m.stats
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingJobService.
type mockEmbeddingService struct {
	available bool
	status    domain.ConnectionStatus
}

func (m *mockEmbeddingService) EmbedChunks(_ context.Context, _ []domain.Chunk) (*domain.BatchReport, error) {
	return &domain.BatchReport{}, nil
}

func (m *mockEmbeddingService) EmbedPending(_ context.Context, _ domain.SourceKind) (*domain.BatchReport, error) {
	return &domain.BatchReport{}, nil
}

func (m *mockEmbeddingService) TestConnection(_ context.Context) domain.ConnectionStatus {
	return m.status
}

func (m *mockEmbeddingService) Available() bool {
	return m.available
}
