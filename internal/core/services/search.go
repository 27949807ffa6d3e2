package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driving"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// DefaultNResults is the result count when the caller does not set one.
const DefaultNResults = 10

// maxFetch caps how many candidates one collection query retrieves. The
// service over-fetches to survive dedup and threshold losses, but never
// beyond this.
const maxFetch = 50

// dedupPrefixLen is how much of a result's content participates in
// duplicate detection. Chunk overlap means near-identical heads, so a
// bounded prefix is both cheap and sufficient.
const dedupPrefixLen = 100

// statsSampleSize is how many documents per collection the category
// distribution is sampled from.
const statsSampleSize = 1000

// SearchService implements unified search across all chunk collections.
type SearchService struct {
	store   driven.VectorStore
	cache   driven.Cache
	limiter *rate.Limiter
	workers int
}

var _ driving.SearchService = (*SearchService)(nil)

// SearchOption configures the service.
type SearchOption func(*SearchService)

// WithBatchWorkers sets the batch search concurrency.
func WithBatchWorkers(n int) SearchOption {
	return func(s *SearchService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit throttles batch member queries to n per second.
func WithRateLimit(n int) SearchOption {
	return func(s *SearchService) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(n), n)
		}
	}
}

// NewSearchService creates a search service. The cache may be nil; search
// then always hits the store.
func NewSearchService(store driven.VectorStore, cache driven.Cache, opts ...SearchOption) *SearchService {
	s := &SearchService{
		store:   store,
		cache:   cache,
		workers: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs one query across every eligible collection, merges the hits,
// and returns the top opts.NResults, best first.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if opts.NResults <= 0 {
		opts.NResults = DefaultNResults
	}

	key := cacheKey(cachePrefixSearch, "search", query, opts)
	return cached(ctx, s.cache, key, TTLSearch, func() ([]domain.SearchResult, error) {
		return s.searchStore(ctx, query, opts)
	})
}

// searchStore is the uncached search pipeline.
func (s *SearchService) searchStore(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	// Step 1: expand the query into variants.
	variants := expandQuery(query, opts.EnableExpansion, opts.EnableFuzzy)
	if len(variants) > 1 {
		logger.Debug("query expanded to %d variants", len(variants))
	}

	// Step 2: pick collections and the native metadata filter.
	targets := make([]collectionInfo, 0, len(collections))
	for _, c := range collections {
		if opts.Source == "" || opts.Source == c.Source {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, opts.Source)
	}

	var where driven.Where
	if opts.Category != "" {
		where = driven.Where{metaCategory: string(opts.Category)}
	}

	// Over-fetch so dedup and thresholding still leave enough results.
	fetch := opts.NResults * 2
	if fetch > maxFetch {
		fetch = maxFetch
	}

	// Step 3: query each collection in parallel. A failing collection is
	// logged and omitted; partial results beat no results.
	var (
		mu     sync.Mutex
		merged []domain.SearchResult
		wg     sync.WaitGroup
		errs   []error
	)

	for _, target := range targets {
		wg.Add(1)
		go func(info collectionInfo) {
			defer wg.Done()

			var hits []domain.SearchResult
			for _, variant := range variants {
				res, err := s.store.Query(ctx, info.Name, variant, fetch, where)
				if err != nil {
					logger.Warn("collection %s query failed: %v", info.Name, err)
					mu.Lock()
					errs = append(errs, fmt.Errorf("collection %s: %w", info.Name, err))
					mu.Unlock()
					return
				}
				hits = append(hits, resultsFromQuery(res, info)...)
			}

			mu.Lock()
			merged = append(merged, hits...)
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	// Step 4: all collections down means the search itself failed.
	if len(errs) == len(targets) {
		return nil, fmt.Errorf("all collections failed: %w", errs[0])
	}

	// Step 5: score, filter, dedup, rank.
	results := s.rank(merged, opts)
	return results, nil
}

// rank applies boosting, thresholding, post-filters, dedup, ordering and
// truncation to the merged candidate set.
func (s *SearchService) rank(candidates []domain.SearchResult, opts domain.SearchOptions) []domain.SearchResult {
	now := time.Now()
	nameFilter := strings.ToLower(opts.NameContains)

	scored := candidates[:0]
	for _, r := range candidates {
		r.Score = r.Similarity
		if opts.EnableRecencyBoost {
			r.Score *= recencyBoost(now, r.CreatedAt)
		}
		if opts.SimilarityThreshold > 0 && r.Score < opts.SimilarityThreshold {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(r.SourceName), nameFilter) {
			continue
		}
		scored = append(scored, r)
	}

	// Dedup by content prefix, keeping the best-scoring occurrence.
	best := make(map[string]int, len(scored))
	deduped := scored[:0]
	for _, r := range scored {
		prefix := r.Content
		if len(prefix) > dedupPrefixLen {
			prefix = prefix[:dedupPrefixLen]
		}
		if i, seen := best[prefix]; seen {
			if r.Score > deduped[i].Score {
				deduped[i] = r
			}
			continue
		}
		best[prefix] = len(deduped)
		deduped = append(deduped, r)
	}

	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].ChunkID < deduped[j].ChunkID
	})

	if len(deduped) > opts.NResults {
		deduped = deduped[:opts.NResults]
	}
	for i := range deduped {
		deduped[i].Rank = i + 1
	}

	return deduped
}

// resultsFromQuery converts raw store hits into search results.
func resultsFromQuery(res driven.QueryResult, info collectionInfo) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(res.IDs))
	for i := range res.IDs {
		var meta map[string]any
		if i < len(res.Metadatas) {
			meta = res.Metadatas[i]
		}
		var distance float64
		if i < len(res.Distances) {
			distance = res.Distances[i]
		}
		var content string
		if i < len(res.Documents) {
			content = res.Documents[i]
		}

		out = append(out, domain.SearchResult{
			Content:    content,
			Category:   domain.Category(metaString(meta, metaCategory)),
			Distance:   distance,
			Similarity: 1 - distance,
			SourceType: info.Source,
			SourceName: metaString(meta, info.NameKey),
			ChunkID:    res.IDs[i],
			CreatedAt:  metaTime(meta, metaCreatedAt),
			Metadata:   meta,
		})
	}
	return out
}

// recencyBoost is a step function of result age. Unknown timestamps are
// neither boosted nor penalized.
func recencyBoost(now time.Time, createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 1.0
	}
	age := now.Sub(createdAt)
	switch {
	case age <= 7*24*time.Hour:
		return 1.5
	case age <= 30*24*time.Hour:
		return 1.2
	case age <= 90*24*time.Hour:
		return 1.0
	default:
		return 0.9
	}
}

// BatchSearch runs queries through a bounded worker pool. The result slice
// is index-aligned with queries.
func (s *SearchService) BatchSearch(ctx context.Context, queries []string, opts domain.SearchOptions) []domain.BatchResult {
	results := make([]domain.BatchResult, len(queries))
	if len(queries) == 0 {
		return results
	}

	workers := s.workers
	if workers > len(queries) {
		workers = len(queries)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if s.limiter != nil {
					if err := s.limiter.Wait(ctx); err != nil {
						results[i] = domain.BatchResult{Query: queries[i], Err: err}
						continue
					}
				}
				hits, err := s.Search(ctx, queries[i], opts)
				results[i] = domain.BatchResult{Query: queries[i], Results: hits, Err: err}
			}
		}()
	}

	for i := range queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Stats reports per-collection counts and a sampled category distribution.
func (s *SearchService) Stats(ctx context.Context) (domain.Stats, error) {
	key := cacheKey(cachePrefixStats, "stats")
	return cached(ctx, s.cache, key, TTLStats, func() (domain.Stats, error) {
		return s.statsFromStore(ctx)
	})
}

func (s *SearchService) statsFromStore(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{
		DocumentCounts:       make(map[string]int, len(collections)),
		CategoryDistribution: make(map[domain.Category]int),
	}

	for _, c := range collections {
		count, err := s.store.Count(ctx, c.Name)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("counting %s: %w", c.Name, err)
		}
		stats.DocumentCounts[c.Name] = count
		stats.TotalDocuments += count

		sample, err := s.store.Get(ctx, c.Name, nil, statsSampleSize)
		if err != nil {
			logger.Warn("sampling %s failed: %v", c.Name, err)
			continue
		}
		for _, meta := range sample.Metadatas {
			if cat := metaString(meta, metaCategory); cat != "" {
				stats.CategoryDistribution[domain.Category(cat)]++
			}
		}
	}

	filters, err := s.Filters(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.AvailableFilters = filters

	return stats, nil
}

// Filters lists the filter values accepted by SearchOptions.
func (s *SearchService) Filters(ctx context.Context) (domain.FilterOptions, error) {
	sources := make([]domain.SourceType, 0, len(collections))
	for _, c := range collections {
		sources = append(sources, c.Source)
	}
	return domain.FilterOptions{
		Categories: append([]domain.Category(nil), domain.Categories...),
		Sources:    sources,
	}, nil
}
