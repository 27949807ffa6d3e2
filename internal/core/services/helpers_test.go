package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
)

// fakeStore is an in-memory VectorStore. Query ranks by naive term
// overlap so tests get deterministic, content-sensitive ordering without
// real embeddings.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string][]driven.Document

	queryErr map[string]error
	getErr   map[string]error

	// failFilteredGet makes only where-filtered Gets fail, leaving full
	// scans working.
	failFilteredGet map[string]error

	queryCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:            make(map[string][]driven.Document),
		queryErr:        make(map[string]error),
		getErr:          make(map[string]error),
		failFilteredGet: make(map[string]error),
	}
}

func (f *fakeStore) Add(_ context.Context, collection string, docs []driven.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		replaced := false
		for i, existing := range f.docs[collection] {
			if existing.ID == d.ID {
				f.docs[collection][i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			f.docs[collection] = append(f.docs[collection], d)
		}
	}
	return nil
}

func matchesWhere(meta map[string]any, where driven.Where) bool {
	for k, v := range where {
		if s, ok := meta[k].(string); !ok || s != v {
			return false
		}
	}
	return true
}

// distanceFor is the fake similarity model: exact substring 0.1, shared
// word 0.4, otherwise 0.95.
func distanceFor(query, content string) float64 {
	q := strings.ToLower(query)
	c := strings.ToLower(content)
	if strings.Contains(c, q) {
		return 0.1
	}
	for _, w := range strings.Fields(q) {
		if strings.Contains(c, w) {
			return 0.4
		}
	}
	return 0.95
}

func (f *fakeStore) Query(_ context.Context, collection, query string, nResults int, where driven.Where) (driven.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++

	if err := f.queryErr[collection]; err != nil {
		return driven.QueryResult{}, err
	}

	type hit struct {
		doc      driven.Document
		distance float64
	}
	var hits []hit
	for _, d := range f.docs[collection] {
		if !matchesWhere(d.Metadata, where) {
			continue
		}
		hits = append(hits, hit{doc: d, distance: distanceFor(query, d.Content)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].doc.ID < hits[j].doc.ID
	})
	if nResults > 0 && len(hits) > nResults {
		hits = hits[:nResults]
	}

	var res driven.QueryResult
	for _, h := range hits {
		res.IDs = append(res.IDs, h.doc.ID)
		res.Documents = append(res.Documents, h.doc.Content)
		res.Metadatas = append(res.Metadatas, h.doc.Metadata)
		res.Distances = append(res.Distances, h.distance)
	}
	return res, nil
}

func (f *fakeStore) Get(_ context.Context, collection string, where driven.Where, limit int) (driven.GetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.getErr[collection]; err != nil {
		return driven.GetResult{}, err
	}
	if len(where) > 0 {
		if err := f.failFilteredGet[collection]; err != nil {
			return driven.GetResult{}, err
		}
	}

	var res driven.GetResult
	for _, d := range f.docs[collection] {
		if !matchesWhere(d.Metadata, where) {
			continue
		}
		res.IDs = append(res.IDs, d.ID)
		res.Documents = append(res.Documents, d.Content)
		res.Metadatas = append(res.Metadatas, d.Metadata)
		if limit > 0 && len(res.IDs) >= limit {
			break
		}
	}
	return res, nil
}

func (f *fakeStore) Count(_ context.Context, collection string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[collection]; err != nil {
		return 0, err
	}
	return len(f.docs[collection]), nil
}

func (f *fakeStore) Heartbeat(context.Context) error { return nil }

var _ driven.VectorStore = (*fakeStore)(nil)

// fakeCache is an in-memory Cache that ignores TTLs.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	hits   int
	misses int
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	if ok {
		f.hits++
	} else {
		f.misses++
	}
	return v, ok
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.entries[key] = value
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
}

func (f *fakeCache) DeleteByPattern(_ context.Context, pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
			n++
		}
	}
	return n
}

func (f *fakeCache) Ping(context.Context) error { return nil }

var _ driven.Cache = (*fakeCache)(nil)

// seedEntry describes one document to plant in the fake store. Overrides
// patch the default conversation metadata.
type seedEntry struct {
	id        string
	content   string
	overrides map[string]any
}

type seedEntries []seedEntry

func (es seedEntries) docs() []driven.Document {
	out := make([]driven.Document, 0, len(es))
	for _, e := range es {
		out = append(out, driven.Document{
			ID:       e.id,
			Content:  e.content,
			Metadata: convMeta("c1", e.id, 0, 0, e.overrides),
		})
	}
	return out
}

func convMeta(conversationID, messageID string, chunkIndex, messageIndex int, overrides map[string]any) map[string]any {
	meta := map[string]any{
		metaConversationID:  conversationID,
		metaMessageID:       messageID,
		metaChunkIndex:      chunkIndex,
		metaTotalChunks:     1,
		metaMessageIndex:    messageIndex,
		metaTotalMessages:   1,
		metaCategory:        "general",
		metaSender:          "human",
		metaChunkType:       "message",
		metaSourceType:      "conversation",
		"conversation_name": "Test Conversation",
	}
	for k, v := range overrides {
		meta[k] = v
	}
	return meta
}
