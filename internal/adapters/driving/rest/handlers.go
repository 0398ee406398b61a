package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// handleSearch serves GET /search?q=&mode=&type=&limit=&bm25_weight=&cosine_weight=.
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	mode := domain.SearchMode(c.DefaultQuery("mode", string(domain.SearchModeHybrid)))

	opts, err := searchOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := s.ports.Search.Search(c.Request.Context(), query, mode, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:   query,
		Mode:    mode.String(),
		Results: toResults(results),
		Count:   len(results),
	})
}

// handleSearchAll serves GET /search/all?q=&limit=&type=, grouping hybrid
// results by source kind.
func (s *Server) handleSearchAll(c *gin.Context) {
	scope := domain.SearchScope(c.DefaultQuery("type", string(domain.SearchScopeBoth)))
	limit, err := limitParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	grouped, err := s.ports.Search.SearchAll(c.Request.Context(), c.Query("q"), limit, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make(map[string][]SearchResult, len(grouped))
	for kind, results := range grouped {
		out[kind.String()] = toResults(results)
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": out})
}

// handleRebuild serves POST /search/rebuild-index.
func (s *Server) handleRebuild(c *gin.Context) {
	stats, err := s.ports.Search.RebuildVectorIndex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIndexStats(stats))
}

// handleHealth reports liveness and the last vector index rebuild.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"vector_index": toIndexStats(s.ports.Search.IndexStats()),
	})
}

// handleEmbeddingHealth probes the embedding provider.
func (s *Server) handleEmbeddingHealth(c *gin.Context) {
	if s.ports.Embedding == nil || !s.ports.Embedding.Available() {
		respondError(c, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable))
		return
	}

	status := s.ports.Embedding.TestConnection(c.Request.Context())
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status.Status(),
		"model":        status.Model,
		"dimension":    status.Dimension,
		"probe_length": len(status.ProbeText),
		"error":        status.Error,
	})
}

func searchOptions(c *gin.Context) (domain.SearchOptions, error) {
	var opts domain.SearchOptions

	limit, err := limitParam(c)
	if err != nil {
		return opts, err
	}
	opts.Limit = limit

	if t := c.Query("type"); t != "" {
		kind, err := domain.ParseSourceKind(t)
		if err != nil {
			return opts, err
		}
		opts.Kind = kind
	}

	bm25, hasBM25, err := floatParam(c, "bm25_weight")
	if err != nil {
		return opts, err
	}
	cosine, hasCosine, err := floatParam(c, "cosine_weight")
	if err != nil {
		return opts, err
	}
	if hasBM25 {
		opts.BM25Weight = &bm25
	}
	if hasCosine {
		opts.CosineWeight = &cosine
	}
	return opts, nil
}

// limitParam parses the limit query parameter. 0 means the default.
func limitParam(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > domain.MaxSearchLimit {
		return 0, fmt.Errorf("%w: limit must be an integer between 0 and %d",
			domain.ErrInvalidInput, domain.MaxSearchLimit)
	}
	return v, nil
}

func floatParam(c *gin.Context, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
	return v, true, nil
}
