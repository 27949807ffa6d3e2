// Package chroma implements the vector store port against a ChromaDB
// server using the v2 HTTP API. Embeddings are computed server-side from
// document text.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// requestTimeout bounds each outbound call so a stalled server cannot
// hang a pipeline step.
const requestTimeout = 30 * time.Second

// Store is a ChromaDB-backed VectorStore. Collections are created lazily
// on first use and memoized.
type Store struct {
	client chromago.Client

	mu          sync.Mutex
	collections map[string]chromago.Collection
}

var _ driven.VectorStore = (*Store)(nil)

// New connects to a ChromaDB server. An empty baseURL uses the client's
// default endpoint.
func New(baseURL string) (*Store, error) {
	var opts []chromago.ClientOption
	if baseURL != "" {
		opts = append(opts, chromago.WithBaseURL(baseURL))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}
	return &Store{
		client:      client,
		collections: make(map[string]chromago.Collection),
	}, nil
}

// Close releases client resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// Heartbeat verifies the server is reachable.
func (s *Store) Heartbeat(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("chroma heartbeat: %w", err)
	}
	return nil
}

func (s *Store) collection(ctx context.Context, name string) (chromago.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	c, err := s.client.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

// Add upserts documents. The document ID is stable per chunk, so retries
// and re-imports overwrite rather than duplicate.
func (s *Store) Add(ctx context.Context, collection string, docs []driven.Document) error {
	if len(docs) == 0 {
		return nil
	}
	col, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, 0, len(docs))
	texts := make([]string, 0, len(docs))
	metas := make([]chromago.DocumentMetadata, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, chromago.DocumentID(d.ID))
		texts = append(texts, d.Content)
		metas = append(metas, toDocumentMetadata(d.Metadata))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	err = col.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("upserting %d documents into %s: %w", len(docs), collection, err)
	}
	logger.Debug("upserted %d documents into %s", len(docs), collection)
	return nil
}

// Query runs a semantic search. Only a single-field equality filter is
// pushed down; callers post-filter anything richer.
func (s *Store) Query(ctx context.Context, collection, query string, nResults int, where driven.Where) (driven.QueryResult, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return driven.QueryResult{}, err
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryTexts(query),
		chromago.WithNResults(nResults),
	}
	if w := whereClause(where); w != nil {
		opts = append(opts, chromago.WithWhereQuery(w))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := col.Query(ctx, opts...)
	if err != nil {
		return driven.QueryResult{}, fmt.Errorf("querying %s: %w", collection, err)
	}

	var out driven.QueryResult
	idGroups := res.GetIDGroups()
	docGroups := res.GetDocumentsGroups()
	metaGroups := res.GetMetadatasGroups()
	distGroups := res.GetDistancesGroups()
	if len(idGroups) == 0 {
		return out, nil
	}

	for i, id := range idGroups[0] {
		out.IDs = append(out.IDs, string(id))
		if len(docGroups) > 0 && i < len(docGroups[0]) {
			out.Documents = append(out.Documents, docGroups[0][i].ContentString())
		} else {
			out.Documents = append(out.Documents, "")
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			out.Metadatas = append(out.Metadatas, fromDocumentMetadata(metaGroups[0][i]))
		} else {
			out.Metadatas = append(out.Metadatas, map[string]any{})
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			out.Distances = append(out.Distances, float64(distGroups[0][i]))
		} else {
			out.Distances = append(out.Distances, 0)
		}
	}
	return out, nil
}

// Get fetches documents by filter.
func (s *Store) Get(ctx context.Context, collection string, where driven.Where, limit int) (driven.GetResult, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return driven.GetResult{}, err
	}

	var opts []chromago.CollectionGetOption
	if w := whereClause(where); w != nil {
		opts = append(opts, chromago.WithWhereGet(w))
	}
	if limit > 0 {
		opts = append(opts, chromago.WithLimitGet(limit))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := col.Get(ctx, opts...)
	if err != nil {
		return driven.GetResult{}, fmt.Errorf("fetching from %s: %w", collection, err)
	}

	var out driven.GetResult
	docs := res.GetDocuments()
	metas := res.GetMetadatas()
	for i, id := range res.GetIDs() {
		out.IDs = append(out.IDs, string(id))
		if i < len(docs) {
			out.Documents = append(out.Documents, docs[i].ContentString())
		} else {
			out.Documents = append(out.Documents, "")
		}
		if i < len(metas) {
			out.Metadatas = append(out.Metadatas, fromDocumentMetadata(metas[i]))
		} else {
			out.Metadatas = append(out.Metadatas, map[string]any{})
		}
	}
	return out, nil
}

// Count returns the collection size.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	n, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return int(n), nil
}

// whereClause builds the native filter. The port contract guarantees at
// most one field is pushed down.
func whereClause(where driven.Where) chromago.WhereFilter {
	for k, v := range where {
		return chromago.EqString(k, v)
	}
	return nil
}

// toDocumentMetadata converts flat metadata to the typed attribute form
// the client expects. Unsupported value types are stringified.
func toDocumentMetadata(meta map[string]any) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(k, fmt.Sprintf("%v", val)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// fromDocumentMetadata converts typed metadata back to a flat map. The
// metadata type exposes no value iterator, so it round-trips through JSON.
func fromDocumentMetadata(meta chromago.DocumentMetadata) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		logger.Warn("metadata unmarshalable: %v", err)
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("metadata undecodable: %v", err)
		return map[string]any{}
	}
	return out
}
