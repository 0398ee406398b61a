package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func newTestServer(t *testing.T, search *mockSearchService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Search: search})
	require.NoError(t, err)
	return server
}

func TestServer_searchHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					ChunkID:        "chunk-1",
					Content:        "cats purr softly",
					SourceID:       "conv-1",
					SourceKind:     domain.SourceKindConversation,
					SourceTitle:    "Pets",
					ContainerLabel: domain.RootContainerLabel,
					OriginLabel:    "user",
					SequenceIndex:  2,
					BM25Score:      domain.Float64Ptr(1.5),
					CosineScore:    domain.Float64Ptr(0.8),
					HybridScore:    domain.Float64Ptr(1.045),
				},
			},
		}
		server := newTestServer(t, mockSearch)

		_, output, err := server.searchHandler(domain.SearchModeHybrid)(ctx, nil, SearchInput{Query: "cats", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "chunk-1", got.ChunkID)
		assert.Equal(t, "conversation", got.SourceType)
		assert.Equal(t, "Pets", got.Title)
		assert.Equal(t, "Root", got.Folder)
		assert.Equal(t, "user", got.Role)
		assert.Equal(t, 2, got.ChunkIndex)
		assert.InDelta(t, 1.045, *got.HybridScore, 1e-9)
		assert.Equal(t, domain.SearchModeHybrid, mockSearch.lastMode)
		assert.Equal(t, 5, mockSearch.lastOpts.Limit)
		assert.False(t, mockSearch.lastOpts.HasWeights())
	})

	t.Run("document results carry no role", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{{
				ChunkID:     "chunk-2",
				SourceKind:  domain.SourceKindDocument,
				OriginLabel: "pdf",
				FileType:    "pdf",
			}},
		}
		server := newTestServer(t, mockSearch)

		_, output, err := server.searchHandler(domain.SearchModeKeyword)(ctx, nil, SearchInput{Query: "x"})

		require.NoError(t, err)
		assert.Empty(t, output.Results[0].Role)
		assert.Equal(t, "pdf", output.Results[0].FileType)
		assert.Equal(t, domain.SearchModeKeyword, mockSearch.lastMode)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, mockSearch)

		_, output, err := server.searchHandler(domain.SearchModeSemantic)(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, domain.DefaultSearchLimit, mockSearch.lastOpts.Limit)
	})

	t.Run("partial weight override leaves the other to the service", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, mockSearch)
		bm25 := 1.0

		_, _, err := server.searchHandler(domain.SearchModeHybrid)(ctx, nil,
			SearchInput{Query: "test", BM25Weight: &bm25})

		require.NoError(t, err)
		require.NotNil(t, mockSearch.lastOpts.BM25Weight)
		assert.Equal(t, 1.0, *mockSearch.lastOpts.BM25Weight)
		assert.Nil(t, mockSearch.lastOpts.CosineWeight)
	})

	t.Run("type filter is parsed", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, mockSearch)

		_, _, err := server.searchHandler(domain.SearchModeHybrid)(ctx, nil,
			SearchInput{Query: "test", Type: "document"})

		require.NoError(t, err)
		assert.Equal(t, domain.SourceKindDocument, mockSearch.lastOpts.Kind)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{})

		_, _, err := server.searchHandler(domain.SearchModeHybrid)(ctx, nil,
			SearchInput{Query: "test", Type: "email"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{err: errors.New("search failed")})

		_, _, err := server.searchHandler(domain.SearchModeHybrid)(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("reports rebuild stats", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{stats: &domain.IndexStats{
			Entries:   3,
			Skipped:   1,
			Dimension: 8,
			Duration:  1500 * time.Microsecond,
		}})

		_, output, err := server.handleRebuild(ctx, nil, RebuildInput{})

		require.NoError(t, err)
		assert.Equal(t, 3, output.Entries)
		assert.Equal(t, 1, output.Skipped)
		assert.Equal(t, 8, output.Dimension)
		assert.InDelta(t, 1.5, output.DurationMS, 1e-9)
	})

	t.Run("surfaces rebuild conflict", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{err: domain.ErrRebuildInProgress})

		_, _, err := server.handleRebuild(ctx, nil, RebuildInput{})

		assert.ErrorIs(t, err, domain.ErrRebuildInProgress)
	})
}
