package driven

import "context"

// Where is a metadata equality filter. The vector store is only required
// to honor a single field natively; callers post-filter any remainder.
type Where map[string]string

// Document is a chunk as the vector store sees it: an ID, the embeddable
// text, and flat metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// QueryResult holds one semantic query's matches in ranked order. The
// slices are parallel: index i describes one match.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]any
	Distances []float64
}

// GetResult holds documents fetched by filter rather than by similarity.
type GetResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]any
}

// VectorStore abstracts the embedding-backed document store. One store
// serves multiple named collections.
type VectorStore interface {
	// Add upserts documents into a collection. Embedding happens
	// store-side from the document content.
	Add(ctx context.Context, collection string, docs []Document) error

	// Query runs a semantic similarity search and returns up to nResults
	// matches, nearest first. A nil where applies no filter.
	Query(ctx context.Context, collection, query string, nResults int, where Where) (QueryResult, error)

	// Get fetches documents matching the filter, without similarity
	// ranking. A limit of 0 means no limit.
	Get(ctx context.Context, collection string, where Where, limit int) (GetResult, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Heartbeat verifies the store is reachable.
	Heartbeat(ctx context.Context) error
}
