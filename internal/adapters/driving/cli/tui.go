package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui"
)

// runProgram runs the TUI; tests replace it to avoid taking the terminal.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse search results in an interactive terminal UI",
	Long: `Launch the interactive search browser.

Controls:
  Enter    - Search / open result
  Tab      - Switch between hybrid, keyword and semantic search
  Ctrl+T   - Filter by conversations or documents
  ↑/k, ↓/j - Navigate results
  /        - New search
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Print the stack before bubbletea restores the terminal.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(cmd.Context(), &tui.Ports{
		Search:    searchService,
		Embedding: embeddingService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := runProgram(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
