package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats, err := searchService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		return outputJSON(cmd, stats)
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()

	cmd.Println(header("Documents"))
	names := make([]string, 0, len(stats.DocumentCounts))
	for name := range stats.DocumentCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("  %-28s %d\n", name, stats.DocumentCounts[name])
	}
	cmd.Printf("  %-28s %d\n", "total", stats.TotalDocuments)

	cmd.Println()
	cmd.Println(header("Categories (sampled)"))
	for _, cat := range stats.AvailableFilters.Categories {
		if n, ok := stats.CategoryDistribution[cat]; ok {
			cmd.Printf("  %-28s %d\n", cat, n)
		}
	}
	return nil
}
