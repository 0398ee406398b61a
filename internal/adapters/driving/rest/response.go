package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// respondError writes err with the status its sentinel maps to.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: err.Error(),
			Code:    code,
		},
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrRebuildInProgress):
		return http.StatusConflict, "rebuild_in_progress"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, "search_unavailable"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable, "embedding_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// SearchResult is the JSON shape of a ranked chunk.
type SearchResult struct {
	ChunkID     string   `json:"chunk_id"`
	Content     string   `json:"content"`
	SourceID    string   `json:"source_id"`
	SourceType  string   `json:"source_type"`
	Title       string   `json:"title"`
	Folder      string   `json:"folder"`
	Origin      string   `json:"origin,omitempty"`
	FileType    string   `json:"file_type,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	BM25Score   *float64 `json:"bm25_score,omitempty"`
	CosineScore *float64 `json:"cosine_score,omitempty"`
	HybridScore *float64 `json:"hybrid_score,omitempty"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Mode    string         `json:"mode"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// IndexStats is the JSON shape of a vector index rebuild.
type IndexStats struct {
	Entries    int     `json:"entries"`
	Skipped    int     `json:"skipped"`
	Dimension  int     `json:"dimension"`
	DurationMS float64 `json:"duration_ms"`
	BuiltAt    string  `json:"built_at"`
}

func toResults(results []domain.SearchResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i := range results {
		r := &results[i]
		out[i] = SearchResult{
			ChunkID:     r.ChunkID,
			Content:     r.Content,
			SourceID:    r.SourceID,
			SourceType:  r.SourceKind.String(),
			Title:       r.SourceTitle,
			Folder:      r.ContainerLabel,
			Origin:      r.OriginLabel,
			FileType:    r.FileType,
			ChunkIndex:  r.SequenceIndex,
			BM25Score:   r.BM25Score,
			CosineScore: r.CosineScore,
			HybridScore: r.HybridScore,
		}
	}
	return out
}

func toIndexStats(s *domain.IndexStats) *IndexStats {
	if s == nil {
		return nil
	}
	return &IndexStats{
		Entries:    s.Entries,
		Skipped:    s.Skipped,
		Dimension:  s.Dimension,
		DurationMS: float64(s.Duration.Microseconds()) / 1000,
		BuiltAt:    s.BuiltAt.UTC().Format(time.RFC3339),
	}
}
