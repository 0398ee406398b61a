package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for recall resources.
	uriScheme = "recall://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index/stats",
		Name:        "index-stats",
		Description: "Statistics of the last vector index rebuild",
		MIMEType:    "application/json",
	}, s.handleIndexStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "embedding/status",
		Name:        "embedding-status",
		Description: "Health of the configured embedding provider",
		MIMEType:    "application/json",
	}, s.handleEmbeddingStatusResource)
}

// indexStatsInfo is the JSON shape of the index stats resource.
type indexStatsInfo struct {
	Built      bool      `json:"built"`
	Entries    int       `json:"entries"`
	Skipped    int       `json:"skipped"`
	Dimension  int       `json:"dimension"`
	DurationMS float64   `json:"duration_ms"`
	BuiltAt    time.Time `json:"built_at,omitzero"`
}

// embeddingStatusInfo is the JSON shape of the embedding status resource.
type embeddingStatusInfo struct {
	Configured bool   `json:"configured"`
	Status     string `json:"status"`
	Model      string `json:"model,omitempty"`
	Dimension  int    `json:"dimension,omitempty"`
	Error      string `json:"error,omitempty"`
}

// handleIndexStatsResource reports the last vector index rebuild.
func (s *Server) handleIndexStatsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := indexStatsInfo{}
	if stats := s.ports.Search.IndexStats(); stats != nil {
		info = indexStatsInfo{
			Built:      true,
			Entries:    stats.Entries,
			Skipped:    stats.Skipped,
			Dimension:  stats.Dimension,
			DurationMS: float64(stats.Duration.Microseconds()) / 1000,
			BuiltAt:    stats.BuiltAt,
		}
	}
	return jsonResource(req.Params.URI, info)
}

// handleEmbeddingStatusResource probes the embedding provider.
func (s *Server) handleEmbeddingStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Embedding == nil || !s.ports.Embedding.Available() {
		return jsonResource(req.Params.URI, embeddingStatusInfo{Status: "unconfigured"})
	}

	status := s.ports.Embedding.TestConnection(ctx)
	return jsonResource(req.Params.URI, embeddingStatusInfo{
		Configured: true,
		Status:     status.Status(),
		Model:      status.Model,
		Dimension:  status.Dimension,
		Error:      status.Error,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
