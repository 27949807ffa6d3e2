package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

type stubSearchService struct {
	results []domain.SearchResult
	batch   []domain.BatchResult
	stats   domain.Stats
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (s *stubSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.lastQuery = query
	s.lastOpts = opts
	return s.results, s.err
}

func (s *stubSearchService) BatchSearch(_ context.Context, queries []string, _ domain.SearchOptions) []domain.BatchResult {
	return s.batch
}

func (s *stubSearchService) Stats(context.Context) (domain.Stats, error) {
	return s.stats, s.err
}

func (s *stubSearchService) Filters(context.Context) (domain.FilterOptions, error) {
	return domain.FilterOptions{}, nil
}

type stubReconstructService struct {
	conv      *domain.ReconstructedConversation
	summaries []domain.ConversationSummary
	err       error
}

func (s *stubReconstructService) Reconstruct(context.Context, string) (*domain.ReconstructedConversation, error) {
	return s.conv, s.err
}

func (s *stubReconstructService) List(context.Context, int) ([]domain.ConversationSummary, error) {
	return s.summaries, s.err
}

func (s *stubReconstructService) Find(context.Context, string, int) ([]domain.ConversationSummary, error) {
	return s.summaries, s.err
}

type stubIngestService struct {
	report *domain.IngestReport
	err    error
}

func (s *stubIngestService) IngestFolder(context.Context, string, domain.IngestOptions) (*domain.IngestReport, error) {
	return s.report, s.err
}

func (s *stubIngestService) IngestDir(context.Context, string, domain.IngestOptions) ([]*domain.IngestReport, error) {
	return []*domain.IngestReport{s.report}, s.err
}

func (s *stubIngestService) Watch(context.Context, string, domain.IngestOptions) error {
	return s.err
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		SetServices(nil, nil, nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSearchCommand(t *testing.T) {
	search := &stubSearchService{results: []domain.SearchResult{
		{Rank: 1, Content: "severance details", SourceName: "Planning", Category: domain.CategoryLegalCompliance, Score: 0.91, SourceType: domain.SourceConversation},
	}}
	SetServices(search, &stubReconstructService{}, &stubIngestService{})

	out, err := runCommand(t, "search", "severance", "-n", "3", "--expand", "--recency")

	require.NoError(t, err)
	assert.Contains(t, out, "Planning")
	assert.Contains(t, out, "severance details")
	assert.Equal(t, "severance", search.lastQuery)
	assert.Equal(t, 3, search.lastOpts.NResults)
	assert.True(t, search.lastOpts.EnableExpansion)
	assert.True(t, search.lastOpts.EnableRecencyBoost)
}

func TestSearchCommand_JSON(t *testing.T) {
	search := &stubSearchService{results: []domain.SearchResult{
		{Rank: 1, Content: "hello", ChunkID: "abc"},
	}}
	SetServices(search, &stubReconstructService{}, &stubIngestService{})

	out, err := runCommand(t, "search", "hello", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"ChunkID": "abc"`)
}

func TestSearchCommand_InvalidCategory(t *testing.T) {
	SetServices(&stubSearchService{}, &stubReconstructService{}, &stubIngestService{})

	_, err := runCommand(t, "search", "q", "--category", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestSearchCommand_NoService(t *testing.T) {
	SetServices(nil, nil, nil)

	_, err := runCommand(t, "search", "q")

	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	search := &stubSearchService{batch: []domain.BatchResult{
		{Query: "one", Results: []domain.SearchResult{{Rank: 1, Content: "hit", Score: 0.8}}},
		{Query: "two", Err: domain.ErrInvalidInput},
	}}
	SetServices(search, &stubReconstructService{}, &stubIngestService{})

	out, err := runCommand(t, "batch", "one", "two")

	require.NoError(t, err)
	assert.Contains(t, out, "Query: one")
	assert.Contains(t, out, "hit")
	assert.Contains(t, out, "invalid input")
}

func TestConversationsShowCommand(t *testing.T) {
	recon := &stubReconstructService{conv: &domain.ReconstructedConversation{
		ConversationID: "c1",
		Title:          "Severance Planning",
		Messages: []domain.ReconstructedMessage{
			{MessageID: "m1", Sender: "human", Content: "Here is the question."},
			{MessageID: "m2", Sender: "assistant", Content: "Here is the answer."},
		},
		TotalChunks:       3,
		HumanMessages:     1,
		AssistantMessages: 1,
	}}
	SetServices(&stubSearchService{}, recon, &stubIngestService{})

	out, err := runCommand(t, "conversations", "show", "c1")

	require.NoError(t, err)
	assert.Contains(t, out, "Severance Planning")
	assert.Contains(t, out, "Here is the question.")
	assert.Contains(t, out, "Here is the answer.")
}

func TestConversationsShowCommand_NotFound(t *testing.T) {
	recon := &stubReconstructService{err: domain.ErrNotFound}
	SetServices(&stubSearchService{}, recon, &stubIngestService{})

	_, err := runCommand(t, "conversations", "show", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConversationsListCommand(t *testing.T) {
	recon := &stubReconstructService{summaries: []domain.ConversationSummary{
		{ConversationID: "c1", Title: "First Chat", ChunkCount: 4},
	}}
	SetServices(&stubSearchService{}, recon, &stubIngestService{})

	out, err := runCommand(t, "conversations", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "First Chat")
	assert.Contains(t, out, "4 chunks")
}

func TestIngestCommand(t *testing.T) {
	ingest := &stubIngestService{report: &domain.IngestReport{
		FolderName:          "data-2025-06-01",
		Processed:           2,
		ChunksCreated:       7,
		LedgerFolders:       3,
		LedgerConversations: 2,
		LedgerProjects:      1,
	}}
	SetServices(&stubSearchService{}, &stubReconstructService{}, ingest)

	out, err := runCommand(t, "ingest", "/tmp/export")

	require.NoError(t, err)
	assert.Contains(t, out, "data-2025-06-01")
	assert.Contains(t, out, "2 records processed, 7 chunks created")
	assert.Contains(t, out, "ledger: 3 folders, 2 conversations, 1 projects tracked")
}

func TestIngestCommand_WatchDryRunConflict(t *testing.T) {
	SetServices(&stubSearchService{}, &stubReconstructService{}, &stubIngestService{})

	_, err := runCommand(t, "ingest", "/tmp/export", "--watch", "--dry-run")

	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	search := &stubSearchService{stats: domain.Stats{
		DocumentCounts: map[string]int{"claude_conversation_chats": 12},
		TotalDocuments: 12,
		CategoryDistribution: map[domain.Category]int{
			domain.CategoryGeneral: 12,
		},
		AvailableFilters: domain.FilterOptions{Categories: domain.Categories},
	}}
	SetServices(search, &stubReconstructService{}, &stubIngestService{})

	out, err := runCommand(t, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "claude_conversation_chats")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "general")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "analyzer version")
}
