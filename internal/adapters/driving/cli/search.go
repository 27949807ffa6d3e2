package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

var (
	searchLimit     int
	searchCategory  string
	searchSource    string
	searchName      string
	searchThreshold float64
	searchExpand    bool
	searchFuzzy     bool
	searchRecency   bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search across all ingested conversations and projects",
	Long: `Runs a semantic search across every collection and returns merged,
re-ranked results. Optional query expansion adds business-vocabulary
synonyms and proper-noun spelling variants.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by content category")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict to one source type (project or conversation)")
	searchCmd.Flags().StringVar(&searchName, "name-contains", "", "keep only results whose source name contains this text")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum score to include a result")
	searchCmd.Flags().BoolVar(&searchExpand, "expand", false, "expand the query with business vocabulary")
	searchCmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "add proper-noun spelling variants")
	searchCmd.Flags().BoolVar(&searchRecency, "recency", false, "boost recent results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func searchOptions() (domain.SearchOptions, error) {
	opts := domain.SearchOptions{
		NResults:            searchLimit,
		NameContains:        searchName,
		SimilarityThreshold: searchThreshold,
		EnableExpansion:     searchExpand,
		EnableFuzzy:         searchFuzzy,
		EnableRecencyBoost:  searchRecency,
	}
	if searchCategory != "" {
		if !domain.ValidCategory(searchCategory) {
			return opts, fmt.Errorf("unknown category %q", searchCategory)
		}
		opts.Category = domain.Category(searchCategory)
	}
	if searchSource != "" {
		opts.Source = domain.SourceType(searchSource)
	}
	return opts, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts, err := searchOptions()
	if err != nil {
		return err
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	cmd.Println(header("Results:"))
	cmd.Println()
	for _, r := range results {
		cmd.Printf("[%d] %s %s\n", r.Rank, r.SourceName, dim(fmt.Sprintf("(%s, %s, score %.3f)", r.SourceType, r.Category, r.Score)))
		cmd.Printf("    %s\n", snippet(r.Content, 160))
	}
	return nil
}

// snippet truncates content to a display length on a rune boundary.
func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
