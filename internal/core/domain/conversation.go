package domain

import "time"

// ReconstructedMessage is a complete message reassembled from its chunks.
type ReconstructedMessage struct {
	MessageID    string
	MessageIndex int
	Sender       string
	Content      string
	CreatedAt    time.Time
	Category     Category
	ChunkCount   int
}

// ReconstructedConversation is a full conversation rebuilt from the vector
// store, with messages in chronological order. It is a view, not a stored
// entity.
type ReconstructedConversation struct {
	ConversationID string
	Title          string
	Messages       []ReconstructedMessage

	TotalChunks       int
	HumanMessages     int
	AssistantMessages int
	Categories        []Category
	AvgMessageLength  float64
}

// ConversationSummary is a lightweight listing entry.
type ConversationSummary struct {
	ConversationID string
	Title          string
	ChunkCount     int
	Categories     []Category

	// RelevanceScore is set by content searches (best matching chunk),
	// zero for plain listings.
	RelevanceScore float64
}
