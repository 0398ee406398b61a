package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// snippetLength is the number of runes of chunk content shown per result.
const snippetLength = 160

var (
	searchMode         string
	searchType         string
	searchLimit        int
	searchBM25Weight   float64
	searchCosineWeight float64
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search conversations and documents",
	Long: `Performs hybrid search across all stored chunks.
Combines keyword (BM25) and semantic (vector) scores with configurable
weights. Use --mode to run a single signal and --type both to get results
grouped by conversation and document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVar(&searchMode, "mode", string(domain.SearchModeHybrid), "hybrid, keyword or semantic")
	flags.StringVar(&searchType, "type", "", "conversation, document or both (default all, ungrouped)")
	flags.IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.default_limit)")
	flags.Float64Var(&searchBM25Weight, "bm25-weight", domain.DefaultBM25Weight, "hybrid: weight of the BM25 score (default search.bm25_weight)")
	flags.Float64Var(&searchCosineWeight, "cosine-weight", domain.DefaultCosineWeight, "hybrid: weight of the cosine score (default search.cosine_weight)")
	flags.BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	mode := domain.SearchMode(searchMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, searchMode)
	}

	if searchType == string(domain.SearchScopeBoth) {
		if mode != domain.SearchModeHybrid {
			return fmt.Errorf("%w: --type both only supports hybrid mode", domain.ErrInvalidInput)
		}
		grouped, err := searchService.SearchAll(cmd.Context(), query, searchLimit, domain.SearchScopeBoth)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputGrouped(cmd, grouped)
	}

	opts := domain.SearchOptions{Limit: searchLimit}
	if searchType != "" {
		kind, err := domain.ParseSourceKind(searchType)
		if err != nil {
			return err
		}
		opts.Kind = kind
	}
	if cmd.Flags().Changed("bm25-weight") {
		opts.BM25Weight = &searchBM25Weight
	}
	if cmd.Flags().Changed("cosine-weight") {
		opts.CosineWeight = &searchCosineWeight
	}

	results, err := searchService.Search(cmd.Context(), query, mode, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, toJSONResults(results))
	}
	return outputSearchTable(cmd, results)
}

// searchResultJSON is the --json shape of a result.
type searchResultJSON struct {
	ChunkID     string   `json:"chunk_id"`
	Content     string   `json:"content"`
	SourceID    string   `json:"source_id"`
	SourceType  string   `json:"source_type"`
	Title       string   `json:"title"`
	Folder      string   `json:"folder"`
	Origin      string   `json:"origin,omitempty"`
	FileType    string   `json:"file_type,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	BM25Score   *float64 `json:"bm25_score,omitempty"`
	CosineScore *float64 `json:"cosine_score,omitempty"`
	HybridScore *float64 `json:"hybrid_score,omitempty"`
}

func toJSONResults(results []domain.SearchResult) []searchResultJSON {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		r := &results[i]
		out[i] = searchResultJSON{
			ChunkID:     r.ChunkID,
			Content:     r.Content,
			SourceID:    r.SourceID,
			SourceType:  r.SourceKind.String(),
			Title:       r.SourceTitle,
			Folder:      r.ContainerLabel,
			Origin:      r.OriginLabel,
			FileType:    r.FileType,
			ChunkIndex:  r.SequenceIndex,
			BM25Score:   r.BM25Score,
			CosineScore: r.CosineScore,
			HybridScore: r.HybridScore,
		}
	}
	return out
}

func outputSearchJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputGrouped(cmd *cobra.Command, grouped map[domain.SourceKind][]domain.SearchResult) error {
	if searchJSON {
		out := make(map[string][]searchResultJSON, len(grouped))
		for kind, results := range grouped {
			out[kind.String()] = toJSONResults(results)
		}
		return outputSearchJSON(cmd, out)
	}

	for _, kind := range domain.AllSourceKinds() {
		results, ok := grouped[kind]
		if !ok {
			continue
		}
		cmd.Printf("== %ss ==\n", kind)
		if err := outputSearchTable(cmd, results); err != nil {
			return err
		}
	}
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		// Format: [N] Title (Score)
		title := r.SourceTitle
		if title == "" {
			title = r.SourceID
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, r.Score())
		cmd.Printf("      %s / %s #%d%s\n", r.ContainerLabel, r.SourceKind, r.SequenceIndex, originSuffix(r))
		if breakdown := scoreBreakdown(r); breakdown != "" {
			cmd.Printf("      %s\n", breakdown)
		}
		if text := snippet(r.Content); text != "" {
			cmd.Printf("      %s\n", text)
		}
		cmd.Println()
	}
	return nil
}

func originSuffix(r *domain.SearchResult) string {
	switch {
	case r.FileType != "":
		return " [" + r.FileType + "]"
	case r.OriginLabel != "":
		return " [" + r.OriginLabel + "]"
	default:
		return ""
	}
}

// scoreBreakdown lists the individual signals of a hybrid result.
func scoreBreakdown(r *domain.SearchResult) string {
	if r.HybridScore == nil {
		return ""
	}
	var parts []string
	if r.BM25Score != nil {
		parts = append(parts, fmt.Sprintf("bm25=%.3f", *r.BM25Score))
	}
	if r.CosineScore != nil {
		parts = append(parts, fmt.Sprintf("cosine=%.3f", *r.CosineScore))
	}
	return strings.Join(parts, " ")
}

// snippet collapses whitespace and truncates content for display.
func snippet(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) <= snippetLength {
		return s
	}
	return string(runes[:snippetLength]) + "..."
}
