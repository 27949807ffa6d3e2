package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

func TestDocumentFromChunk_ExtrasCannotShadowReservedKeys(t *testing.T) {
	info, ok := collectionFor(domain.SourceConversation)
	require.True(t, ok)

	c := domain.Chunk{
		ChunkID:        "id",
		ConversationID: "c1",
		MessageID:      "m1",
		Content:        "hello",
		Sender:         "human",
		SourceType:     domain.SourceConversation,
		SourceName:     "Chat",
		Extra: map[string]string{
			metaConversationID:  "spoofed",
			metaCreatedAt:       "2001-01-01T00:00:00Z",
			"conversation_name": "spoofed",
			"file_name":         "notes.txt",
		},
	}

	doc := documentFromChunk(c, info)

	assert.Equal(t, "c1", doc.Metadata[metaConversationID])
	assert.Equal(t, "Chat", doc.Metadata[info.NameKey])
	assert.Equal(t, "notes.txt", doc.Metadata["file_name"])
	// A zero chunk time leaves no timestamp, smuggled or otherwise.
	_, present := doc.Metadata[metaCreatedAt]
	assert.False(t, present)
}
