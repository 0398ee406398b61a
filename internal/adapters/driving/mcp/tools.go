package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query        string   `json:"query" jsonschema:"the search query"`
	Limit        int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Type         string   `json:"type,omitempty" jsonschema:"restrict to conversation or document chunks"`
	BM25Weight   *float64 `json:"bm25_weight,omitempty" jsonschema:"hybrid only: weight of the BM25 score (default 0.35)"`
	CosineWeight *float64 `json:"cosine_weight,omitempty" jsonschema:"hybrid only: weight of the cosine score (default 0.65)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID     string   `json:"chunk_id"`
	Content     string   `json:"content"`
	SourceID    string   `json:"source_id"`
	SourceType  string   `json:"source_type"`
	Title       string   `json:"title"`
	Folder      string   `json:"folder"`
	Role        string   `json:"role,omitempty"`
	FileType    string   `json:"file_type,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	BM25Score   *float64 `json:"bm25_score,omitempty"`
	CosineScore *float64 `json:"cosine_score,omitempty"`
	HybridScore *float64 `json:"hybrid_score,omitempty"`
}

// RebuildInput is the (empty) input schema for rebuild_index.
type RebuildInput struct{}

// RebuildOutput reports a completed vector index rebuild.
type RebuildOutput struct {
	Entries    int     `json:"entries"`
	Skipped    int     `json:"skipped"`
	Dimension  int     `json:"dimension"`
	DurationMS float64 `json:"duration_ms"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "hybrid_search",
		Description: "Search conversations and documents by fusing BM25 keyword and semantic similarity scores",
	}, s.searchHandler(domain.SearchModeHybrid))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "keyword_search",
		Description: "Search conversations and documents by BM25 keyword relevance only",
	}, s.searchHandler(domain.SearchModeKeyword))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Search conversations and documents by embedding similarity only",
	}, s.searchHandler(domain.SearchModeSemantic))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the in-memory vector index from stored embeddings",
	}, s.handleRebuild)
}

// searchHandler returns the tool handler for one search mode.
func (s *Server) searchHandler(mode domain.SearchMode) mcp.ToolHandlerFor[SearchInput, SearchOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		opts, err := searchOptions(input)
		if err != nil {
			return nil, SearchOutput{}, err
		}

		results, err := s.ports.Search.Search(ctx, input.Query, mode, opts)
		if err != nil {
			return nil, SearchOutput{}, err
		}

		output := SearchOutput{
			Results: make([]SearchResultOutput, len(results)),
			Count:   len(results),
		}
		for i := range results {
			output.Results[i] = toOutput(results[i])
		}
		return nil, output, nil
	}
}

// handleRebuild handles the rebuild_index tool invocation.
func (s *Server) handleRebuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	stats, err := s.ports.Search.RebuildVectorIndex(ctx)
	if err != nil {
		return nil, RebuildOutput{}, err
	}
	return nil, RebuildOutput{
		Entries:    stats.Entries,
		Skipped:    stats.Skipped,
		Dimension:  stats.Dimension,
		DurationMS: float64(stats.Duration.Microseconds()) / 1000,
	}, nil
}

func searchOptions(input SearchInput) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{Limit: input.Limit}
	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultSearchLimit
	}
	if input.Type != "" {
		kind, err := domain.ParseSourceKind(input.Type)
		if err != nil {
			return opts, err
		}
		opts.Kind = kind
	}
	opts.BM25Weight = input.BM25Weight
	opts.CosineWeight = input.CosineWeight
	return opts, nil
}

func toOutput(r domain.SearchResult) SearchResultOutput {
	return SearchResultOutput{
		ChunkID:     r.ChunkID,
		Content:     r.Content,
		SourceID:    r.SourceID,
		SourceType:  r.SourceKind.String(),
		Title:       r.SourceTitle,
		Folder:      r.ContainerLabel,
		Role:        roleOf(r),
		FileType:    r.FileType,
		ChunkIndex:  r.SequenceIndex,
		BM25Score:   r.BM25Score,
		CosineScore: r.CosineScore,
		HybridScore: r.HybridScore,
	}
}

// roleOf returns the message role, which only conversation chunks carry.
func roleOf(r domain.SearchResult) string {
	if r.SourceKind == domain.SourceKindConversation {
		return r.OriginLabel
	}
	return ""
}
