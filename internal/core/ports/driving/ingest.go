package driving

import (
	"context"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

// IngestService imports chat export folders into the vector store.
type IngestService interface {
	// IngestFolder imports one export folder: discover files, dedup
	// against the ledger, chunk, categorize, and store.
	IngestFolder(ctx context.Context, dir string, opts domain.IngestOptions) (*domain.IngestReport, error)

	// IngestDir imports every export folder under root in chronological
	// order, oldest first.
	IngestDir(ctx context.Context, root string, opts domain.IngestOptions) ([]*domain.IngestReport, error)

	// Watch blocks, importing new export folders as they appear under
	// root, until the context is cancelled.
	Watch(ctx context.Context, root string, opts domain.IngestOptions) error
}
