package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var sourceType string

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Rename, move and delete sources",
	Long: `Manage stored conversations and documents. Renames and moves refresh the
keyword index entries of the source's chunks.`,
}

var sourceRenameCmd = &cobra.Command{
	Use:   "rename [source-id] [title]",
	Short: "Change a source's title",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceRename,
}

var sourceMoveCmd = &cobra.Command{
	Use:   "move [source-id] [folder]",
	Short: "Move a source to a folder",
	Long:  `Moves a source to the named folder, creating it if needed. Use "Root" or "" for no folder.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceMove,
}

var sourceDeleteCmd = &cobra.Command{
	Use:   "delete [source-id]",
	Short: "Delete a source and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceDelete,
}

func init() {
	sourceCmd.PersistentFlags().StringVar(&sourceType, "type", "", "source type: conversation or document")
	sourceCmd.AddCommand(sourceRenameCmd)
	sourceCmd.AddCommand(sourceMoveCmd)
	sourceCmd.AddCommand(sourceDeleteCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceRename(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	kind, err := parseKind(sourceType)
	if err != nil {
		return err
	}

	if err := ingestService.RenameSource(cmd.Context(), args[0], kind, args[1]); err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	cmd.Printf("Renamed %s %s to %q.\n", kind, args[0], args[1])
	return nil
}

func runSourceMove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	kind, err := parseKind(sourceType)
	if err != nil {
		return err
	}

	if err := ingestService.MoveSource(cmd.Context(), args[0], kind, args[1]); err != nil {
		return fmt.Errorf("move failed: %w", err)
	}
	cmd.Printf("Moved %s %s to %s.\n", kind, args[0], folderLabel(args[1]))
	return nil
}

func runSourceDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	kind, err := parseKind(sourceType)
	if err != nil {
		return err
	}

	if err := ingestService.DeleteSource(cmd.Context(), args[0], kind); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %s %s.\n", kind, args[0])
	return nil
}

func folderLabel(folder string) string {
	if folder == "" {
		return domain.RootContainerLabel
	}
	return folder
}
