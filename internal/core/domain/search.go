package domain

import "time"

// Default fusion weights. They need not sum to 1.
const (
	DefaultBM25Weight   = 0.35
	DefaultCosineWeight = 0.65
	DefaultSearchLimit  = 10

	// MaxSearchLimit caps the results any single search returns.
	MaxSearchLimit = 1000
)

// SearchMode selects which signals a search uses.
type SearchMode string

// Available search modes.
const (
	// SearchModeHybrid fuses lexical and semantic scores.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeKeyword uses only the BM25 lexical index.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeSemantic uses only the vector index.
	SearchModeSemantic SearchMode = "semantic"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeHybrid, SearchModeKeyword, SearchModeSemantic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeHybrid:
		return "Hybrid (BM25 + semantic)"
	case SearchModeKeyword:
		return "Keyword (BM25 only)"
	case SearchModeSemantic:
		return "Semantic (vector only)"
	default:
		return unknownDescription
	}
}

// Weights are the linear fusion coefficients.
type Weights struct {
	BM25   float64
	Cosine float64
}

// DefaultWeights returns the 0.35 / 0.65 split.
func DefaultWeights() Weights {
	return Weights{BM25: DefaultBM25Weight, Cosine: DefaultCosineWeight}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Kind restricts results to conversation or document chunks.
	Kind SourceKind

	// BM25Weight and CosineWeight override the configured fusion weights
	// for hybrid search. A nil field keeps the configured value.
	BM25Weight   *float64
	CosineWeight *float64
}

// HasWeights reports whether either fusion weight is overridden.
func (o SearchOptions) HasWeights() bool {
	return o.BM25Weight != nil || o.CosineWeight != nil
}

// WeightsOver returns base with the overridden weights applied.
func (o SearchOptions) WeightsOver(base Weights) Weights {
	if o.BM25Weight != nil {
		base.BM25 = *o.BM25Weight
	}
	if o.CosineWeight != nil {
		base.Cosine = *o.CosineWeight
	}
	return base
}

// SearchScope selects which kinds SearchAll covers.
type SearchScope string

// Available search scopes.
const (
	SearchScopeConversation SearchScope = "conversation"
	SearchScopeDocument     SearchScope = "document"
	SearchScopeBoth         SearchScope = "both"
)

// Kinds returns the source kinds covered by the scope.
func (s SearchScope) Kinds() []SourceKind {
	switch s {
	case SearchScopeConversation:
		return []SourceKind{SourceKindConversation}
	case SearchScopeDocument:
		return []SourceKind{SourceKindDocument}
	case SearchScopeBoth:
		return AllSourceKinds()
	default:
		return nil
	}
}

// SearchResult is one ranked chunk. Score fields are nil when the
// corresponding signal did not contribute to the result.
type SearchResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// Content is the chunk text.
	Content string

	// BM25Score is the lexical relevance, higher is better.
	BM25Score *float64

	// CosineScore is the cosine similarity in [-1, 1].
	CosineScore *float64

	// HybridScore is the fused score.
	HybridScore *float64

	// SourceID is the conversation or document id.
	SourceID string

	// SourceKind is the kind of SourceID.
	SourceKind SourceKind

	// SourceTitle is the conversation or document title.
	SourceTitle string

	// ContainerLabel is the folder name, "Root" when unfiled.
	ContainerLabel string

	// OriginLabel is the message role for conversation chunks.
	OriginLabel string

	// FileType is set for document chunks.
	FileType string

	// SequenceIndex is the chunk position within its source.
	SequenceIndex int
}

// Score returns the score that ranked this result: hybrid, then cosine, then BM25.
func (r SearchResult) Score() float64 {
	switch {
	case r.HybridScore != nil:
		return *r.HybridScore
	case r.CosineScore != nil:
		return *r.CosineScore
	case r.BM25Score != nil:
		return *r.BM25Score
	default:
		return 0
	}
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// IndexStats describes a completed vector index rebuild.
type IndexStats struct {
	// Entries is the number of vectors in the new index.
	Entries int

	// Skipped counts stored embeddings rejected for dimension mismatch.
	Skipped int

	// Dimension is the vector length of the index.
	Dimension int

	// Duration is how long the rebuild took.
	Duration time.Duration

	// BuiltAt is when the index was swapped in.
	BuiltAt time.Time
}
