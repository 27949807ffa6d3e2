// Package cli is the driving adapter exposing the analyzer over a command
// line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driving"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// version is the analyzer release, overridable at link time.
var version = "0.3.0"

// Injected use-case implementations. Commands fail with a clear error
// when run before wiring.
var (
	searchService      driving.SearchService
	reconstructService driving.ReconstructService
	ingestService      driving.IngestService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Search and reconstruct personal chat exports",
	Long: `analyzer ingests chat export folders into a vector store and makes
them searchable: unified semantic search across projects and
conversations, conversation reconstruction from stored chunks, and
corpus statistics.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the use-case implementations the commands drive.
func SetServices(search driving.SearchService, reconstruct driving.ReconstructService, ingest driving.IngestService) {
	searchService = search
	reconstructService = reconstruct
	ingestService = ingest
}

// Execute runs the root command. The context is passed down to commands,
// so cancellation stops long runs like watch-mode ingestion.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
