package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the search indices",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index",
	Long: `Rebuilds the in-memory vector index from every stored embedding of the
configured model. Embeddings whose dimension does not match the configured
one are skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the keyword index",
	Long: `Creates the full-text (BM25) index if it does not exist yet and fills it
from the chunks already stored. Keyword search returns nothing until setup
has run. Running it again only adds chunks that are missing.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(setupCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats, err := searchService.RebuildVectorIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Vector index rebuilt: %d entries (dimension %d) in %s\n",
		stats.Entries, stats.Dimension, stats.Duration.Round(time.Microsecond))
	if stats.Skipped > 0 {
		cmd.Printf("Skipped %d embeddings with a mismatched dimension.\n", stats.Skipped)
	}
	return nil
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	added, err := searchService.SetupLexicalIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	cmd.Printf("Keyword index ready (%d chunks added).\n", added)
	return nil
}
