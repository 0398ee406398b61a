package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/rest"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/tracing"
)

var (
	serveAddr        string
	serveCORSOrigins []string
)

// runRESTServer serves until ctx is cancelled; tests replace it.
var runRESTServer = func(cmd *cobra.Command, s *rest.Server, addr string) error {
	return s.Run(cmd.Context(), addr)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API",
	Long: `Starts the HTTP API with search, index rebuild, health and metrics routes.
The vector index is built before listening when search.build_on_start is set.

Routes:
  GET  /search?q=&mode=&type=&limit=&bm25_weight=&cosine_weight=
  GET  /search/all?q=&limit=&type=
  POST /search/rebuild-index
  GET  /health
  GET  /health/embedding
  GET  /metrics

Pass --cors-origin to let browser pages on another origin call the API.
Requests are traced when OTEL_EXPORTER_OTLP_ENDPOINT or --trace is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address)")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "allow browser requests from this origin (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	addr := serveAddr
	buildOnStart := false
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if addr == "" {
			addr = settings.Server.Address
		}
		buildOnStart = settings.Search.BuildOnStart
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.address")
	}

	if buildOnStart && embeddingService != nil && embeddingService.Available() {
		stats, err := searchService.RebuildVectorIndex(cmd.Context())
		if err != nil {
			logger.Warn("building vector index: %v", err)
		} else {
			cmd.Printf("Vector index built: %d entries.\n", stats.Entries)
		}
	}

	var opts []rest.Option
	if len(serveCORSOrigins) > 0 {
		opts = append(opts, rest.WithCORS(serveCORSOrigins...))
	}
	if tracing.Enabled() {
		opts = append(opts, rest.WithTracing("recall"))
	}

	server, err := rest.NewServer(&rest.Ports{
		Search:    searchService,
		Embedding: embeddingService,
	}, opts...)
	if err != nil {
		return err
	}

	cmd.Printf("REST API listening on http://%s\n", addr)
	return runRESTServer(cmd, server, addr)
}
