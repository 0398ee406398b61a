package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search weights, chunking, the embedding provider and
storage. Values are stored in ~/.recall/config.toml; OPENAI_API_KEY,
RECALL_EMBEDDING_BASE_URL, RECALL_EMBEDDING_MODEL and RECALL_DATA_DIR
override the file without being written to it.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Validates and stores a single setting, for example:

  recall settings set search.bm25_weight 0.5
  recall settings set embedding.model text-embedding-3-large

Leave out the value to be prompted for it. Input is not echoed when reading
from a terminal, which keeps embedding.api_key out of shell history.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingEntry is one displayed key and value.
type settingEntry struct {
	key   string
	value string
}

// settingEntries flattens settings into their config keys, masking the API key.
func settingEntries(s *domain.AppSettings) []settingEntry {
	apiKey := "(not set)"
	if s.Embedding.APIKey != "" {
		apiKey = maskAPIKey(s.Embedding.APIKey)
	}
	dataDir := s.Storage.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}
	return []settingEntry{
		{"search.bm25_weight", formatFloat(s.Search.Weights.BM25)},
		{"search.cosine_weight", formatFloat(s.Search.Weights.Cosine)},
		{"search.default_limit", strconv.Itoa(s.Search.DefaultLimit)},
		{"search.build_on_start", strconv.FormatBool(s.Search.BuildOnStart)},
		{"chunking.chunk_size", strconv.Itoa(s.Chunking.ChunkSize)},
		{"chunking.overlap", strconv.Itoa(s.Chunking.Overlap)},
		{"chunking.boundary_window", strconv.Itoa(s.Chunking.BoundaryWindow)},
		{"embedding.model", s.Embedding.Model},
		{"embedding.dimensions", strconv.Itoa(s.Embedding.Dimensions)},
		{"embedding.base_url", s.Embedding.BaseURL},
		{"embedding.api_key", apiKey},
		{"embedding.batch_size", strconv.Itoa(s.Embedding.BatchSize)},
		{"embedding.requests_per_second", formatFloat(s.Embedding.RequestsPerSecond)},
		{"embedding.timeout_seconds", strconv.Itoa(int(s.Embedding.Timeout.Seconds()))},
		{"server.address", s.Server.Address},
		{"storage.data_dir", dataDir},
	}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, e := range settingEntries(settings) {
		cmd.Printf("  %-32s %s\n", e.key, e.value)
	}
	cmd.Println()

	if settings.Embedding.IsConfigured() {
		cmd.Println("Embedding provider: configured")
	} else {
		cmd.Println("Embedding provider: not configured (semantic search disabled)")
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	for _, e := range settingEntries(settings) {
		if e.key == args[0] {
			cmd.Println(e.value)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("Enter value for %s: ", args[0])
		v, err := readSecret(cmd.InOrStdin())
		cmd.Println()
		if err != nil {
			return fmt.Errorf("reading value: %w", err)
		}
		value = v
	}

	if err := settingsService.SetValue(args[0], value); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// readSecret reads one line, without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: empty value", domain.ErrInvalidInput)
	}
	return line, nil
}

// maskAPIKey masks an API key for display, showing only first and last 4 chars.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
