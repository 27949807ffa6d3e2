package services

import (
	"time"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
)

// Collection names in the vector store. Project and conversation chunks
// live apart so either corpus can be searched or counted on its own.
const (
	CollectionProjects      = "claude_project_chats"
	CollectionConversations = "claude_conversation_chats"
)

// Metadata keys shared by every stored chunk.
const (
	metaConversationID = "conversation_uuid"
	metaMessageID      = "message_uuid"
	metaChunkIndex     = "chunk_index"
	metaTotalChunks    = "total_chunks"
	metaMessageIndex   = "message_index"
	metaTotalMessages  = "total_messages"
	metaCategory       = "category"
	metaSender         = "sender"
	metaChunkType      = "chunk_type"
	metaCreatedAt      = "created_at"
	metaSourceType     = "source_type"
)

// collectionInfo describes one logical collection: its store name and the
// metadata key that carries the human-readable source name.
type collectionInfo struct {
	Name    string
	Source  domain.SourceType
	NameKey string
}

// collections is the registry, in the order searches fan out.
var collections = []collectionInfo{
	{Name: CollectionProjects, Source: domain.SourceProject, NameKey: "project_name"},
	{Name: CollectionConversations, Source: domain.SourceConversation, NameKey: "conversation_name"},
}

// collectionFor resolves the collection a source type is stored in.
func collectionFor(src domain.SourceType) (collectionInfo, bool) {
	for _, c := range collections {
		if c.Source == src {
			return c, true
		}
	}
	return collectionInfo{}, false
}

// documentFromChunk converts a chunk into its stored representation. The
// chunk ID doubles as the document ID, which makes Add an upsert.
func documentFromChunk(c domain.Chunk, info collectionInfo) driven.Document {
	// Extras pass through first so the reserved keys below always win.
	meta := make(map[string]any, len(c.Extra)+12)
	for k, v := range c.Extra {
		meta[k] = v
	}

	meta[metaConversationID] = c.ConversationID
	meta[metaMessageID] = c.MessageID
	meta[metaChunkIndex] = c.ChunkIndex
	meta[metaTotalChunks] = c.TotalChunks
	meta[metaMessageIndex] = c.MessageIndex
	meta[metaTotalMessages] = c.TotalMessages
	meta[metaCategory] = string(c.Category)
	meta[metaSender] = c.Sender
	meta[metaChunkType] = string(c.ChunkType)
	meta[metaSourceType] = string(c.SourceType)
	meta[info.NameKey] = c.SourceName
	if c.CreatedAt.IsZero() {
		delete(meta, metaCreatedAt)
	} else {
		meta[metaCreatedAt] = c.CreatedAt.UTC().Format(time.RFC3339)
	}

	return driven.Document{
		ID:       c.ChunkID,
		Content:  c.Content,
		Metadata: meta,
	}
}

// metaString reads a string metadata value, empty when absent or mistyped.
func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaInt reads a numeric metadata value. Stores that round-trip metadata
// through JSON hand numbers back as float64.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// metaTime parses an RFC3339 timestamp value, zero when absent or invalid.
func metaTime(meta map[string]any, key string) time.Time {
	s := metaString(meta, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
