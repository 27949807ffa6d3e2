package driving

import (
	"context"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

// ReconstructService rebuilds full conversations from their stored chunks.
type ReconstructService interface {
	// Reconstruct reassembles one conversation, messages in order.
	// Returns domain.ErrNotFound when no chunks exist for the ID.
	Reconstruct(ctx context.Context, conversationID string) (*domain.ReconstructedConversation, error)

	// List enumerates known conversations. A limit of 0 means all.
	List(ctx context.Context, limit int) ([]domain.ConversationSummary, error)

	// Find locates conversations whose content matches the query, best
	// first, at most n of them.
	Find(ctx context.Context, query string, n int) ([]domain.ConversationSummary, error)
}
