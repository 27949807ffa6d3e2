package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

var (
	ingestForce  bool
	ingestDryRun bool
	ingestAll    bool
	ingestWatch  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Import chat export folders into the vector store",
	Long: `Imports one export folder: files are recognised by shape, records
already in the import ledger are skipped, and message text is chunked
and categorized before storage.

With --all, path is treated as a root containing many export folders,
imported oldest first. With --watch, the analyzer keeps running and
imports new folders as they appear under the root.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-import even if the ledger lists the folder")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "analyze without writing anything")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "treat path as a root of many export folders")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "import new folders as they appear (implies --all)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	opts := domain.IngestOptions{
		ForceReimport: ingestForce,
		DryRun:        ingestDryRun,
	}
	ctx := cmd.Context()

	switch {
	case ingestWatch:
		if ingestDryRun {
			return errors.New("--watch and --dry-run cannot be combined")
		}
		return ingestService.Watch(ctx, args[0], opts)

	case ingestAll:
		reports, err := ingestService.IngestDir(ctx, args[0], opts)
		for _, r := range reports {
			printIngestReport(cmd, r)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return nil

	default:
		report, err := ingestService.IngestFolder(ctx, args[0], opts)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		printIngestReport(cmd, report)
		return nil
	}
}

func printIngestReport(cmd *cobra.Command, r *domain.IngestReport) {
	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	good := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	cmd.Println(header(r.FolderName))
	switch {
	case r.Skipped:
		cmd.Printf("  %s\n", warn("already imported, skipped"))
	case r.DryRun:
		cmd.Printf("  dry run: %d/%d projects new, %d/%d conversations new\n",
			r.Analysis.NewProjects, r.Analysis.TotalProjects,
			r.Analysis.NewConversations, r.Analysis.TotalConversations)
	default:
		cmd.Printf("  %s\n", good(fmt.Sprintf("%d records processed, %d chunks created", r.Processed, r.ChunksCreated)))
		if r.SkippedCount > 0 {
			cmd.Printf("  %d records already imported\n", r.SkippedCount)
		}
		if r.Failed > 0 {
			cmd.Printf("  %s\n", warn(fmt.Sprintf("%d records failed", r.Failed)))
		}
		cmd.Printf("  ledger: %d folders, %d conversations, %d projects tracked\n",
			r.LedgerFolders, r.LedgerConversations, r.LedgerProjects)
		cmd.Printf("  took %s\n", r.Duration.Round(time.Millisecond))
	}
}
