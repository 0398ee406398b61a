// Package cli provides the cobra command tree for recall.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Services consumed by the commands. They are set by the bootstrapper
// (or directly by tests) before a command runs.
var (
	searchService    driving.SearchService
	chunkingService  driving.ChunkingService
	embeddingService driving.EmbeddingJobService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService
	closeServices    func() error
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	Verbose    bool
	ConfigPath string
	DataDir    string
	Trace      bool
	LogFormat  string
}

// Services bundles the driving ports a bootstrapper hands to the CLI.
type Services struct {
	Search    driving.SearchService
	Chunking  driving.ChunkingService
	Embedding driving.EmbeddingJobService
	Ingest    driving.IngestService
	Settings  driving.SettingsService

	// Close releases resources such as the database. Optional.
	Close func() error
}

// Bootstrapper builds the services once global flags are parsed.
type Bootstrapper func(ctx context.Context, opts GlobalOptions) (*Services, error)

var (
	globalOpts GlobalOptions
	bootstrap  Bootstrapper
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "recall/skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Hybrid search over conversations and documents",
	Long: `recall stores conversations and documents, cuts them into overlapping
chunks and searches them with BM25 keyword ranking, embedding similarity,
or a weighted fusion of both.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&globalOpts.ConfigPath, "config", "", "config file (default ~/.recall/config.toml)")
	flags.StringVar(&globalOpts.DataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
	flags.BoolVar(&globalOpts.Trace, "trace", false, "print OpenTelemetry spans to stderr")
	flags.StringVar(&globalOpts.LogFormat, "log-format", "console", "log output format: console or json")
}

// Execute runs the root command. boot is called lazily before the first
// command that needs services.
func Execute(ctx context.Context, ver string, boot Bootstrapper) error {
	version = ver
	bootstrap = boot
	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				logger.Warn("closing services: %v", err)
			}
			closeServices = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	searchService = s.Search
	chunkingService = s.Chunking
	embeddingService = s.Embedding
	ingestService = s.Ingest
	settingsService = s.Settings
	closeServices = s.Close
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globalOpts.Verbose)
	switch globalOpts.LogFormat {
	case "console", "":
		logger.SetJSON(false)
	case "json":
		logger.SetJSON(true)
	default:
		return fmt.Errorf("%w: unknown log format %q", domain.ErrInvalidInput, globalOpts.LogFormat)
	}

	if bootstrap == nil || cmd.Annotations[skipBootstrap] != "" {
		return nil
	}

	services, err := bootstrap(cmd.Context(), globalOpts)
	if err != nil {
		return fmt.Errorf("starting recall: %w", err)
	}
	SetServices(services)
	return nil
}

// parseKind parses the --type flag of commands that act on one kind.
func parseKind(value string) (domain.SourceKind, error) {
	if value == "" {
		return "", errors.New("--type is required (conversation or document)")
	}
	return domain.ParseSourceKind(value)
}
