package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

var batchJSON bool

var batchCmd = &cobra.Command{
	Use:   "batch [query]...",
	Short: "Run several searches concurrently",
	Long: `Runs every query through the search pipeline in parallel. A failing
query is reported in place without affecting the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results per query")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results := searchService.BatchSearch(cmd.Context(), args, domain.SearchOptions{NResults: searchLimit})

	if batchJSON {
		type entry struct {
			Query   string                `json:"query"`
			Results []domain.SearchResult `json:"results,omitempty"`
			Error   string                `json:"error,omitempty"`
		}
		out := make([]entry, 0, len(results))
		for _, r := range results {
			e := entry{Query: r.Query, Results: r.Results}
			if r.Err != nil {
				e.Error = r.Err.Error()
			}
			out = append(out, e)
		}
		return outputJSON(cmd, out)
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	errColor := color.New(color.FgRed).SprintFunc()
	for _, r := range results {
		cmd.Println(header(fmt.Sprintf("Query: %s", r.Query)))
		switch {
		case r.Err != nil:
			cmd.Printf("  %s\n", errColor(r.Err.Error()))
		case len(r.Results) == 0:
			cmd.Println("  no results")
		default:
			for _, hit := range r.Results {
				cmd.Printf("  [%d] %s (score %.3f)\n", hit.Rank, snippet(hit.Content, 120), hit.Score)
			}
		}
		cmd.Println()
	}
	return nil
}
