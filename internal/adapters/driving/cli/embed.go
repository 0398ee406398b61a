package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var embedType string

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Manage chunk embeddings",
}

var embedPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Embed chunks that have no embedding yet",
	Long: `Embeds every chunk that has no embedding for the configured model.
Chunks are sent in batches; when a batch fails each of its chunks is retried
on its own and failures are listed at the end.`,
	Args: cobra.NoArgs,
	RunE: runEmbedPending,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the embedding provider connection",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	embedPendingCmd.Flags().StringVar(&embedType, "type", "", "conversation or document (default all)")
	embedCmd.AddCommand(embedPendingCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(pingCmd)
}

func runEmbedPending(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errors.New("embedding service not configured")
	}

	var kind domain.SourceKind
	if embedType != "" {
		k, err := domain.ParseSourceKind(embedType)
		if err != nil {
			return err
		}
		kind = k
	}

	report, err := embeddingService.EmbedPending(cmd.Context(), kind)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	cmd.Printf("Embedded %d of %d chunks.\n", report.Succeeded, report.Requested)
	for _, f := range report.Failures {
		cmd.Printf("  %s: %v\n", f.ChunkID, f.Err)
	}
	return nil
}

func runPing(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errors.New("embedding service not configured")
	}

	status := embeddingService.TestConnection(cmd.Context())
	if !status.OK {
		return fmt.Errorf("embedding provider %s: %s", status.Model, status.Error)
	}

	cmd.Printf("Embedding provider OK: model %s, dimension %d\n", status.Model, status.Dimension)
	return nil
}
