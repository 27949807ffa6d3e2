package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// SourceType identifies which logical collection a chunk belongs to.
type SourceType string

const (
	// SourceProject marks chunks originating from project exports.
	SourceProject SourceType = "project"

	// SourceConversation marks chunks originating from conversation exports.
	SourceConversation SourceType = "conversation"
)

// ChunkType distinguishes message text from extracted attachment content.
type ChunkType string

const (
	ChunkTypeMessage    ChunkType = "message"
	ChunkTypeAttachment ChunkType = "attachment"
)

// Chunk is the atomic indexed unit. Every chunk carries enough message-level
// context to be self-describing without joining back to the source export.
type Chunk struct {
	// ChunkID is deterministically derived from the conversation, message
	// and chunk position. It is the idempotency key in the vector store:
	// re-adding the same chunk overwrites instead of duplicating.
	ChunkID string

	// ConversationID identifies the source conversation.
	ConversationID string

	// MessageID identifies the source message within the conversation.
	MessageID string

	// ChunkIndex is the ordinal position of this chunk within its message.
	ChunkIndex int

	// TotalChunks is the number of chunks the message was split into.
	TotalChunks int

	// Content is the text segment, bounded by the chunker's max length
	// and carrying a trailing overlap of the previous chunk's tail.
	Content string

	// Category is the content category assigned by keyword scoring.
	Category Category

	// ChunkType is message or attachment.
	ChunkType ChunkType

	// Sender is the message sender ("human", "assistant", or "attachment"
	// for extracted attachment content).
	Sender string

	// CreatedAt is the message creation timestamp, copied onto every
	// chunk so recency boosting needs no join.
	CreatedAt time.Time

	// MessageIndex and TotalMessages locate the message within its
	// conversation. MessageIndex is the field reconstruction orders by.
	MessageIndex  int
	TotalMessages int

	// SourceType selects the collection the chunk is written to.
	SourceType SourceType

	// SourceName is the display name of the source (conversation name or
	// project name).
	SourceName string

	// Extra holds bounded passthrough metadata that genuinely varies by
	// source (file names for attachments, project identifiers).
	Extra map[string]string
}

// NewChunkID derives the stable chunk identifier from positional identity.
func NewChunkID(conversationID, messageID string, chunkIndex int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%d", conversationID, messageID, chunkIndex)))
	return hex.EncodeToString(sum[:])
}
