package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/connectors/filesystem"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

var (
	ingestTitle    string
	ingestFolder   string
	ingestFileType string

	ingestDirFolder string
	ingestDirSince  time.Duration
	ingestDirWatch  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add conversations and documents",
	Long: `Stores a new source and chunks it straight away. Use "-" as the file to
read from standard input.`,
}

var ingestDocumentCmd = &cobra.Command{
	Use:   "document [file]",
	Short: "Import a document",
	Long: `Imports a markdown, html, docx or plain text file. Text is extracted
according to --file-type, or the file extension, and the title defaults to
the document's own heading or the file name.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestDocument,
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Import every file under a directory",
	Long: `Walks a directory and imports each visible file as a document. Hidden
files and directories are skipped, and subdirectories become folders, so
notes/work/plan.md is filed under "notes/work" (below --folder if given).

With --watch the command keeps running and imports files created afterwards
until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestDir,
}

var ingestConversationCmd = &cobra.Command{
	Use:   "conversation [file.json]",
	Short: "Add a conversation from JSON",
	Long: `Adds a conversation described as JSON:

  {
    "title": "Trip planning",
    "folder": "Travel",
    "messages": [
      {"role": "user", "content": "Where should we go in May?"},
      {"role": "assistant", "content": "Lisbon is mild in May."}
    ]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestConversation,
}

func init() {
	ingestDocumentCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default heading or file name)")
	ingestDocumentCmd.Flags().StringVar(&ingestFolder, "folder", "", "folder to file the document in")
	ingestDocumentCmd.Flags().StringVar(&ingestFileType, "file-type", "", "file type such as md, html or docx (default file extension)")
	ingestDirCmd.Flags().StringVar(&ingestDirFolder, "folder", "", "folder to file the tree under")
	ingestDirCmd.Flags().DurationVar(&ingestDirSince, "since", 0, "only import files modified within this long (e.g. 24h)")
	ingestDirCmd.Flags().BoolVar(&ingestDirWatch, "watch", false, "keep running and import new files")
	ingestCmd.AddCommand(ingestDocumentCmd)
	ingestCmd.AddCommand(ingestDirCmd)
	ingestCmd.AddCommand(ingestConversationCmd)
	rootCmd.AddCommand(ingestCmd)
}

// conversationFile is the JSON accepted by ingest conversation.
type conversationFile struct {
	Title    string `json:"title"`
	Folder   string `json:"folder"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func runIngestDocument(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	content, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	doc := driving.ImportDocument{
		Title:    ingestTitle,
		Folder:   ingestFolder,
		FileType: ingestFileType,
		Content:  content,
	}
	if args[0] != "-" {
		doc.Name = args[0]
	}

	stored, chunks, err := ingestService.ImportDocument(cmd.Context(), doc)
	if stored == nil && err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Added document %s (%s) with %d chunks.\n", stored.ID, stored.Title, len(chunks))
	if err != nil {
		return fmt.Errorf("document stored but not chunked: %w", err)
	}
	return nil
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	scanner := filesystem.New(filesystem.ResolvePath(args[0]))
	defer scanner.Close()

	var since time.Time
	if ingestDirSince > 0 {
		since = time.Now().Add(-ingestDirSince)
	}

	var imported, failed int
	err := scanner.Walk(cmd.Context(), since, func(f filesystem.File) error {
		if importFile(cmd, f) {
			imported++
		} else {
			failed++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", scanner.Root(), err)
	}
	cmd.Printf("Imported %d documents (%d failed).\n", imported, failed)

	if !ingestDirWatch {
		return nil
	}

	changes, err := scanner.Watch(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for new files. Press Ctrl+C to stop.\n", scanner.Root())
	for change := range changes {
		if change.Type != filesystem.ChangeCreated {
			logger.Debug("Ignoring %s %s", change.Type, change.File.RelPath)
			continue
		}
		importFile(cmd, change.File)
	}
	return nil
}

// importFile imports one scanned file and reports whether it was stored.
func importFile(cmd *cobra.Command, f filesystem.File) bool {
	stored, chunks, err := ingestService.ImportDocument(cmd.Context(), driving.ImportDocument{
		Name:    f.Name,
		Folder:  joinFolder(ingestDirFolder, f.Folder),
		Content: f.Content,
	})
	if stored == nil {
		cmd.Printf("  skipped %s: %v\n", f.RelPath, err)
		return false
	}

	cmd.Printf("  %s -> %s (%d chunks)\n", f.RelPath, stored.ID, len(chunks))
	if err != nil {
		logger.Warn("%s stored but not chunked: %v", f.RelPath, err)
	}
	return true
}

func joinFolder(base, rel string) string {
	switch {
	case base == "":
		return rel
	case rel == "":
		return base
	default:
		return base + "/" + rel
	}
}

func runIngestConversation(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var file conversationFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing conversation: %w", err)
	}

	conv := driving.NewConversation{
		Title:    file.Title,
		Folder:   file.Folder,
		Messages: make([]driving.NewMessage, len(file.Messages)),
	}
	for i, m := range file.Messages {
		conv.Messages[i] = driving.NewMessage{Role: m.Role, Content: m.Content}
	}

	stored, chunks, err := ingestService.AddConversation(cmd.Context(), conv)
	if stored == nil && err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Added conversation %s (%s) with %d chunks.\n", stored.ID, stored.Title, len(chunks))
	if err != nil {
		return fmt.Errorf("conversation stored but not chunked: %w", err)
	}
	return nil
}

// readInput reads a file, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
