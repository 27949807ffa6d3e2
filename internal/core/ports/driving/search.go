package driving

import (
	"context"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

// SearchService is the unified search use case across all chunk
// collections.
type SearchService interface {
	// Search runs one query across every collection, merges and re-ranks
	// the results, and returns them best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// BatchSearch runs several queries concurrently. The returned slice
	// is index-aligned with queries; a failed query carries its error in
	// place without affecting its siblings.
	BatchSearch(ctx context.Context, queries []string, opts domain.SearchOptions) []domain.BatchResult

	// Stats reports corpus-wide counts and category distribution.
	Stats(ctx context.Context) (domain.Stats, error)

	// Filters lists the category and source values usable in
	// SearchOptions.
	Filters(ctx context.Context) (domain.FilterOptions, error)
}
