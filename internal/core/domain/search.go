package domain

import "time"

// SearchOptions configures a unified search query.
type SearchOptions struct {
	// NResults is the maximum number of results to return.
	NResults int

	// Category filters results to a single category when non-empty.
	Category Category

	// Source restricts the search to one source type when non-empty.
	// Empty means all collections are eligible.
	Source SourceType

	// NameContains post-filters results whose source name contains the
	// given substring (case-insensitive).
	NameContains string

	// SimilarityThreshold drops results whose final (boosted) score is
	// below the threshold. Zero keeps everything.
	SimilarityThreshold float64

	// EnableExpansion adds business-vocabulary query variants.
	EnableExpansion bool

	// EnableFuzzy adds proper-noun misspelling variants.
	EnableFuzzy bool

	// EnableRecencyBoost multiplies similarity by a step function of age.
	EnableRecencyBoost bool
}

// SearchResult is a single ranked hit. Produced fresh per query, never
// persisted.
type SearchResult struct {
	// Rank is 1-based, assigned after the final sort.
	Rank int

	Content  string
	Category Category

	// Distance is the raw vector distance reported by the store.
	// Similarity is 1 - Distance. Score is the similarity after recency
	// boosting and may exceed 1.0; ranking and thresholding use Score.
	Distance   float64
	Similarity float64
	Score      float64

	SourceType SourceType
	SourceName string
	ChunkID    string
	CreatedAt  time.Time

	// Metadata is an opaque passthrough of the stored chunk metadata.
	Metadata map[string]any
}

// BatchResult holds the outcome of one member query of a batch search.
// A failing member carries Err and an empty result set.
type BatchResult struct {
	Query   string
	Results []SearchResult
	Err     error
}

// Stats summarises the indexed corpus for operators.
type Stats struct {
	// DocumentCounts maps collection name to chunk count.
	DocumentCounts map[string]int

	// TotalDocuments is the sum across collections.
	TotalDocuments int

	// CategoryDistribution maps category to sampled chunk count.
	CategoryDistribution map[Category]int

	// AvailableFilters enumerates the filter values callers may use.
	AvailableFilters FilterOptions
}

// FilterOptions enumerates valid filter values.
type FilterOptions struct {
	Categories []Category
	Sources    []SourceType
}
