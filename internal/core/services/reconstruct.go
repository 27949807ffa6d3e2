package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driving"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// findOverFetch multiplies the requested conversation count when querying
// chunks, since many chunks collapse into one conversation.
const findOverFetch = 3

// ReconstructService rebuilds conversations from their stored chunks.
type ReconstructService struct {
	store driven.VectorStore
}

var _ driving.ReconstructService = (*ReconstructService)(nil)

// NewReconstructService creates a reconstruction service.
func NewReconstructService(store driven.VectorStore) *ReconstructService {
	return &ReconstructService{store: store}
}

// Reconstruct reassembles one conversation from its chunks: chunks group
// into messages by message ID, order within a message by chunk index, and
// messages order by message index.
func (r *ReconstructService) Reconstruct(ctx context.Context, conversationID string) (*domain.ReconstructedConversation, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: empty conversation id", domain.ErrInvalidInput)
	}

	docs, metas, err := r.fetchConversationChunks(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	messages, title := assembleMessages(docs, metas)
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation %s has %d chunks but no resolvable messages: %w",
			conversationID, len(docs), domain.ErrDataIntegrity)
	}

	conv := &domain.ReconstructedConversation{
		ConversationID: conversationID,
		Title:          title,
		Messages:       messages,
		TotalChunks:    len(docs),
	}

	categories := make(map[domain.Category]struct{})
	var totalLen int
	for _, m := range messages {
		switch m.Sender {
		case "human":
			conv.HumanMessages++
		case "assistant":
			conv.AssistantMessages++
		}
		if m.Category != "" {
			categories[m.Category] = struct{}{}
		}
		totalLen += len(m.Content)
	}
	conv.AvgMessageLength = float64(totalLen) / float64(len(messages))

	for _, c := range domain.Categories {
		if _, ok := categories[c]; ok {
			conv.Categories = append(conv.Categories, c)
		}
	}

	return conv, nil
}

// fetchConversationChunks pulls every chunk of a conversation from all
// collections. When a filtered fetch fails, it degrades to a full scan
// with client-side filtering rather than giving up.
func (r *ReconstructService) fetchConversationChunks(ctx context.Context, conversationID string) ([]string, []map[string]any, error) {
	where := driven.Where{metaConversationID: conversationID}

	var docs []string
	var metas []map[string]any

	for _, c := range collections {
		res, err := r.store.Get(ctx, c.Name, where, 0)
		if err != nil {
			logger.Warn("filtered fetch on %s failed, falling back to full scan: %v", c.Name, err)
			full, scanErr := r.store.Get(ctx, c.Name, nil, 0)
			if scanErr != nil {
				return nil, nil, fmt.Errorf("fetching chunks from %s: %w", c.Name, scanErr)
			}
			res = filterByConversation(full, conversationID)
		}

		for i := range res.IDs {
			if i < len(res.Documents) && i < len(res.Metadatas) {
				docs = append(docs, res.Documents[i])
				metas = append(metas, res.Metadatas[i])
			}
		}
	}

	return docs, metas, nil
}

func filterByConversation(res driven.GetResult, conversationID string) driven.GetResult {
	var out driven.GetResult
	for i := range res.IDs {
		if i >= len(res.Metadatas) || i >= len(res.Documents) {
			break
		}
		if metaString(res.Metadatas[i], metaConversationID) != conversationID {
			continue
		}
		out.IDs = append(out.IDs, res.IDs[i])
		out.Documents = append(out.Documents, res.Documents[i])
		out.Metadatas = append(out.Metadatas, res.Metadatas[i])
	}
	return out
}

// assembleMessages groups chunk documents into ordered messages and picks
// the conversation title from chunk metadata.
func assembleMessages(docs []string, metas []map[string]any) ([]domain.ReconstructedMessage, string) {
	type piece struct {
		index   int
		content string
	}
	type build struct {
		pieces []piece
		meta   map[string]any
	}

	var title string
	builds := make(map[string]*build)
	for i, meta := range metas {
		msgID := metaString(meta, metaMessageID)
		if msgID == "" {
			continue
		}
		b, ok := builds[msgID]
		if !ok {
			b = &build{meta: meta}
			builds[msgID] = b
		}
		b.pieces = append(b.pieces, piece{
			index:   metaInt(meta, metaChunkIndex),
			content: docs[i],
		})
		if title == "" {
			for _, c := range collections {
				if name := metaString(meta, c.NameKey); name != "" {
					title = name
					break
				}
			}
		}
	}

	messages := make([]domain.ReconstructedMessage, 0, len(builds))
	for msgID, b := range builds {
		sort.Slice(b.pieces, func(i, j int) bool { return b.pieces[i].index < b.pieces[j].index })

		parts := make([]string, len(b.pieces))
		for i, p := range b.pieces {
			parts[i] = p.content
		}

		messages = append(messages, domain.ReconstructedMessage{
			MessageID:    msgID,
			MessageIndex: metaInt(b.meta, metaMessageIndex),
			Sender:       metaString(b.meta, metaSender),
			Content:      strings.Join(parts, " "),
			CreatedAt:    metaTime(b.meta, metaCreatedAt),
			Category:     domain.Category(metaString(b.meta, metaCategory)),
			ChunkCount:   len(b.pieces),
		})
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].MessageIndex != messages[j].MessageIndex {
			return messages[i].MessageIndex < messages[j].MessageIndex
		}
		return messages[i].MessageID < messages[j].MessageID
	})

	return messages, title
}

// List enumerates stored conversations with chunk counts and categories.
func (r *ReconstructService) List(ctx context.Context, limit int) ([]domain.ConversationSummary, error) {
	type agg struct {
		summary    domain.ConversationSummary
		categories map[domain.Category]struct{}
	}
	byID := make(map[string]*agg)

	for _, c := range collections {
		res, err := r.store.Get(ctx, c.Name, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", c.Name, err)
		}
		for i := range res.IDs {
			if i >= len(res.Metadatas) {
				break
			}
			meta := res.Metadatas[i]
			id := metaString(meta, metaConversationID)
			if id == "" {
				continue
			}
			a, ok := byID[id]
			if !ok {
				a = &agg{
					summary:    domain.ConversationSummary{ConversationID: id},
					categories: make(map[domain.Category]struct{}),
				}
				byID[id] = a
			}
			a.summary.ChunkCount++
			if a.summary.Title == "" {
				a.summary.Title = metaString(meta, c.NameKey)
			}
			if cat := metaString(meta, metaCategory); cat != "" {
				a.categories[domain.Category(cat)] = struct{}{}
			}
		}
	}

	summaries := make([]domain.ConversationSummary, 0, len(byID))
	for _, a := range byID {
		for _, c := range domain.Categories {
			if _, ok := a.categories[c]; ok {
				a.summary.Categories = append(a.summary.Categories, c)
			}
		}
		summaries = append(summaries, a.summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ChunkCount != summaries[j].ChunkCount {
			return summaries[i].ChunkCount > summaries[j].ChunkCount
		}
		return summaries[i].ConversationID < summaries[j].ConversationID
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Find locates the conversations most relevant to a query. Chunk-level
// matches collapse into unique conversations carrying their best score.
func (r *ReconstructService) Find(ctx context.Context, query string, n int) ([]domain.ConversationSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if n <= 0 {
		n = DefaultNResults
	}

	type agg struct {
		summary    domain.ConversationSummary
		categories map[domain.Category]struct{}
	}
	byID := make(map[string]*agg)

	fetch := n * findOverFetch
	if fetch > maxFetch {
		fetch = maxFetch
	}

	for _, c := range collections {
		res, err := r.store.Query(ctx, c.Name, query, fetch, nil)
		if err != nil {
			logger.Warn("collection %s query failed: %v", c.Name, err)
			continue
		}
		for i := range res.IDs {
			if i >= len(res.Metadatas) || i >= len(res.Distances) {
				break
			}
			meta := res.Metadatas[i]
			id := metaString(meta, metaConversationID)
			if id == "" {
				continue
			}
			score := 1 - res.Distances[i]

			a, ok := byID[id]
			if !ok {
				a = &agg{
					summary: domain.ConversationSummary{
						ConversationID: id,
						Title:          metaString(meta, c.NameKey),
					},
					categories: make(map[domain.Category]struct{}),
				}
				byID[id] = a
			}
			a.summary.ChunkCount++
			if score > a.summary.RelevanceScore {
				a.summary.RelevanceScore = score
			}
			if cat := metaString(meta, metaCategory); cat != "" {
				a.categories[domain.Category(cat)] = struct{}{}
			}
		}
	}

	summaries := make([]domain.ConversationSummary, 0, len(byID))
	for _, a := range byID {
		for _, c := range domain.Categories {
			if _, ok := a.categories[c]; ok {
				a.summary.Categories = append(a.summary.Categories, c)
			}
		}
		summaries = append(summaries, a.summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].RelevanceScore != summaries[j].RelevanceScore {
			return summaries[i].RelevanceScore > summaries[j].RelevanceScore
		}
		return summaries[i].ConversationID < summaries[j].ConversationID
	})

	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries, nil
}
