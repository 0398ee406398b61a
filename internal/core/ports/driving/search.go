package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
//
// Every entry point returns at most opts.Limit results, best first.
// A search fails only when neither the lexical nor the semantic signal
// can be used, in which case it returns domain.ErrSearchUnavailable.
type SearchService interface {
	// HybridSearch fuses BM25 and cosine scores. Each weight left unset in
	// opts takes the configured value (default 0.35 / 0.65).
	HybridSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// KeywordSearch ranks by BM25 only. A missing lexical index yields an empty list.
	KeywordSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SemanticSearch ranks by cosine similarity only.
	SemanticSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Search dispatches to one of the entry points above by mode.
	Search(ctx context.Context, query string, mode domain.SearchMode,
		opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchAll runs a hybrid search per kind in scope and groups the results.
	SearchAll(ctx context.Context, query string, limit int,
		scope domain.SearchScope) (map[domain.SourceKind][]domain.SearchResult, error)

	// RebuildVectorIndex rebuilds the vector index from stored embeddings.
	// Returns domain.ErrRebuildInProgress if a rebuild is already running.
	RebuildVectorIndex(ctx context.Context) (*domain.IndexStats, error)

	// SetupLexicalIndex creates the lexical index if missing and backfills it
	// from stored chunks. Returns the number of entries written.
	SetupLexicalIndex(ctx context.Context) (int, error)

	// IndexStats reports the last successful rebuild, or nil if none happened.
	IndexStats() *domain.IndexStats
}
