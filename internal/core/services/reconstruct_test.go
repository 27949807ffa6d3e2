package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

func seedConversation(t *testing.T, store *fakeStore) {
	t.Helper()
	ctx := context.Background()

	// c1: two messages, the first split into two chunks. Seeded out of
	// order on purpose.
	err := store.Add(ctx, CollectionConversations, seedEntries{
		{"c1-m2-0", "Sounds good, thanks.", map[string]any{
			metaMessageID: "m2", metaMessageIndex: 1,
			metaSender: "assistant", metaCategory: "communication",
		}},
		{"c1-m1-1", "and here is the second half.", map[string]any{
			metaMessageID: "m1", metaChunkIndex: 1, metaTotalChunks: 2,
		}},
		{"c1-m1-0", "Here is the first half", map[string]any{
			metaMessageID: "m1", metaTotalChunks: 2,
		}},
	}.docs())
	require.NoError(t, err)

	err = store.Add(ctx, CollectionConversations, seedEntries{
		{"c2-m1-0", "Unrelated conversation content.", map[string]any{
			metaConversationID: "c2", metaMessageID: "x1",
			"conversation_name": "Other Chat",
		}},
	}.docs())
	require.NoError(t, err)
}

func TestReconstruct_EmptyID(t *testing.T) {
	svc := NewReconstructService(newFakeStore())

	_, err := svc.Reconstruct(context.Background(), "  ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconstruct_NotFound(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	_, err := svc.Reconstruct(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconstruct_OrdersAndJoins(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	conv, err := svc.Reconstruct(context.Background(), "c1")

	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ConversationID)
	assert.Equal(t, "Test Conversation", conv.Title)
	assert.Equal(t, 3, conv.TotalChunks)

	require.Len(t, conv.Messages, 2)

	// m1 first by message index, its chunks joined in chunk order.
	first := conv.Messages[0]
	assert.Equal(t, "m1", first.MessageID)
	assert.Equal(t, "Here is the first half and here is the second half.", first.Content)
	assert.Equal(t, 2, first.ChunkCount)
	assert.Equal(t, "human", first.Sender)

	second := conv.Messages[1]
	assert.Equal(t, "m2", second.MessageID)
	assert.Equal(t, "Sounds good, thanks.", second.Content)
	assert.Equal(t, "assistant", second.Sender)
}

func TestReconstruct_Aggregates(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	conv, err := svc.Reconstruct(context.Background(), "c1")

	require.NoError(t, err)
	assert.Equal(t, 1, conv.HumanMessages)
	assert.Equal(t, 1, conv.AssistantMessages)
	assert.ElementsMatch(t, []domain.Category{
		domain.CategoryCommunication, domain.CategoryGeneral,
	}, conv.Categories)
	assert.Greater(t, conv.AvgMessageLength, 0.0)
}

func TestReconstruct_IntegrityAnomaly(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	// Chunks exist but none carries a message ID.
	require.NoError(t, store.Add(ctx, CollectionConversations, seedEntries{
		{"broken-0", "orphaned chunk", map[string]any{metaMessageID: ""}},
	}.docs()))
	svc := NewReconstructService(store)

	_, err := svc.Reconstruct(ctx, "c1")

	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestReconstruct_FallbackToFullScan(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	store.failFilteredGet[CollectionConversations] = errors.New("where filter unsupported")
	svc := NewReconstructService(store)

	conv, err := svc.Reconstruct(context.Background(), "c1")

	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	// The full scan must not leak other conversations in.
	for _, m := range conv.Messages {
		assert.NotContains(t, m.Content, "Unrelated")
	}
}

func TestList(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	summaries, err := svc.List(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// c1 has more chunks, so it sorts first.
	assert.Equal(t, "c1", summaries[0].ConversationID)
	assert.Equal(t, 3, summaries[0].ChunkCount)
	assert.Equal(t, "Test Conversation", summaries[0].Title)
	assert.Equal(t, "c2", summaries[1].ConversationID)
	assert.Equal(t, "Other Chat", summaries[1].Title)
}

func TestList_Limit(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	summaries, err := svc.List(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestFind(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	svc := NewReconstructService(store)

	summaries, err := svc.Find(context.Background(), "first half", 5)

	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	assert.Equal(t, "c1", summaries[0].ConversationID)
	assert.Greater(t, summaries[0].RelevanceScore, 0.0)

	// Chunk hits collapse into unique conversations.
	seen := map[string]bool{}
	for _, s := range summaries {
		assert.False(t, seen[s.ConversationID])
		seen[s.ConversationID] = true
	}
}

func TestFind_EmptyQuery(t *testing.T) {
	svc := NewReconstructService(newFakeStore())

	_, err := svc.Find(context.Background(), "", 5)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFind_ToleratesCollectionFailure(t *testing.T) {
	store := newFakeStore()
	seedConversation(t, store)
	store.queryErr[CollectionProjects] = errors.New("offline")
	svc := NewReconstructService(store)

	summaries, err := svc.Find(context.Background(), "first half", 5)

	require.NoError(t, err)
	assert.NotEmpty(t, summaries)
}
