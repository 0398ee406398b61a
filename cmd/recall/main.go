// Command recall stores conversations and documents and searches them with
// BM25, embedding similarity or a weighted fusion of both.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
	"github.com/custodia-labs/recall/internal/tracing"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := file.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version, bootstrap)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap wires adapters and services from the config file and flags.
func bootstrap(ctx context.Context, opts cli.GlobalOptions) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	// Invalid stored settings must not lock the user out of "settings set".
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("%v; using defaults", err)
		defaults := settingsService.GetDefaults()
		settings = &defaults
	}

	var closers []func() error
	traceCfg := tracing.Config{ServiceName: "recall", Version: version}
	if opts.Trace {
		traceCfg.Exporter = os.Stderr
	}
	traceCfg.ApplyEnv()
	if traceCfg.Enabled() {
		if err := tracing.Init(ctx, traceCfg); err != nil {
			return nil, fmt.Errorf("starting tracing: %w", err)
		}
		closers = append(closers, func() error { return tracing.Shutdown(context.Background()) })
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = settings.Storage.DataDir
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, store.Close)
	logger.Debug("database: %s", store.Path())

	embedder := newEmbedder(settings.Embedding)

	var vectors *services.VectorIndexManager
	if embedder != nil {
		index, err := flat.New(embedder.Dimensions())
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating vector index: %w", err)
		}
		vectors = services.NewVectorIndexManager(index, store.EmbeddingStore(), embedder.ModelName())
	}

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.ChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithBoundaryWindow(settings.Chunking.BoundaryWindow),
	)

	embedding := services.NewEmbeddingJobService(embedder, store.ChunkStore(), store.EmbeddingStore(),
		settings.Embedding.BatchSize)
	chunking := services.NewChunkingService(store.SourceStore(), store.ChunkStore(), splitter, embedding)
	ingest := services.NewIngestService(
		store.SourceStore(), store.ChunkStore(), store.LexicalIndex(), chunking,
		services.WithNormalisers(normalisers.NewDefaultRegistry()),
	)
	search := services.NewSearchService(store.LexicalIndex(), store.ChunkStore(), vectors, embedder,
		services.WithDefaultWeights(settings.Search.Weights),
		services.WithDefaultLimit(settings.Search.DefaultLimit),
		services.WithLazyBuild(true),
	)

	return &cli.Services{
		Search:    search,
		Chunking:  chunking,
		Embedding: embedding,
		Ingest:    ingest,
		Settings:  settingsService,
		Close: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		},
	}, nil
}

// newEmbedder returns nil when no provider is configured, leaving semantic
// search disabled.
func newEmbedder(cfg domain.EmbeddingSettings) driven.EmbeddingService {
	if !cfg.IsConfigured() {
		logger.Debug("embedding provider not configured; semantic search disabled")
		return nil
	}

	svc, err := openai.NewEmbeddingService(openai.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		Dimensions:        cfg.Dimensions,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		logger.Warn("embedding provider disabled: %v", err)
		return nil
	}
	return svc
}
