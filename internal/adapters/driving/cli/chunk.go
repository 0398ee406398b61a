package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var chunkType string

var chunkCmd = &cobra.Command{
	Use:   "chunk [source-id]",
	Short: "Split a source into chunks",
	Long: `Splits a conversation or document into overlapping chunks, stores them and
embeds them when an embedding provider is configured. A source that already
has chunks must be rechunked instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var chunkAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Chunk every source that has no chunks yet",
	Args:  cobra.NoArgs,
	RunE:  runChunkAll,
}

var rechunkCmd = &cobra.Command{
	Use:   "rechunk [source-id]",
	Short: "Replace the chunks of a source",
	Long: `Deletes the chunks of a source together with their embeddings and keyword
index entries, then chunks the source again.`,
	Args: cobra.ExactArgs(1),
	RunE: runRechunk,
}

func init() {
	chunkCmd.PersistentFlags().StringVar(&chunkType, "type", "", "source type: conversation or document")
	rechunkCmd.Flags().StringVar(&chunkType, "type", "", "source type: conversation or document")
	chunkCmd.AddCommand(chunkAllCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(rechunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}
	kind, err := parseKind(chunkType)
	if err != nil {
		return err
	}

	chunks, err := chunkingService.ChunkSource(cmd.Context(), args[0], kind)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	cmd.Printf("Created %d chunks for %s %s.\n", len(chunks), kind, args[0])
	return nil
}

func runRechunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}
	kind, err := parseKind(chunkType)
	if err != nil {
		return err
	}

	chunks, err := chunkingService.RechunkSource(cmd.Context(), args[0], kind)
	if err != nil {
		return fmt.Errorf("rechunking failed: %w", err)
	}

	cmd.Printf("Replaced chunks of %s %s: %d chunks.\n", kind, args[0], len(chunks))
	return nil
}

func runChunkAll(cmd *cobra.Command, _ []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	kinds := domain.AllSourceKinds()
	if chunkType != "" {
		kind, err := domain.ParseSourceKind(chunkType)
		if err != nil {
			return err
		}
		kinds = []domain.SourceKind{kind}
	}

	for _, kind := range kinds {
		report, err := chunkingService.ChunkAll(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("chunking %ss failed: %w", kind, err)
		}
		cmd.Printf("%ss: %d chunked (%d chunks), %d skipped, %d failed\n",
			kind, report.Processed, report.Chunks, report.Skipped, len(report.Failed))
		for _, f := range report.Failed {
			cmd.Printf("  %s: %v\n", f.SourceID, f.Err)
		}
	}
	return nil
}
