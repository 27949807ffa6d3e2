package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/categorizer"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/chunker"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driving"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/ledger"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// watchSettleDelay is how long a newly appeared export folder gets to
// finish copying before the watcher imports it.
const watchSettleDelay = 2 * time.Second

// IngestService imports chat export folders: discover files, dedup against
// the ledger, chunk, categorize, and store.
type IngestService struct {
	store    driven.VectorStore
	cache    driven.Cache
	ledger   *ledger.Ledger
	splitter *chunker.Splitter
}

var _ driving.IngestService = (*IngestService)(nil)

// NewIngestService creates an ingestion service. The cache may be nil;
// it is only used for post-import invalidation.
func NewIngestService(store driven.VectorStore, cache driven.Cache, led *ledger.Ledger, splitter *chunker.Splitter) *IngestService {
	return &IngestService{
		store:    store,
		cache:    cache,
		ledger:   led,
		splitter: splitter,
	}
}

// exportFiles is the classified content of one export folder.
type exportFiles struct {
	projectsPath      string
	conversationsPath string
	projects          []domain.ExportProject
	conversations     []domain.ExportConversation
}

// IngestFolder imports one export folder end to end.
func (s *IngestService) IngestFolder(ctx context.Context, dir string, opts domain.IngestOptions) (*domain.IngestReport, error) {
	start := time.Now()
	folderName := filepath.Base(filepath.Clean(dir))

	report := &domain.IngestReport{
		RunID:      uuid.NewString(),
		FolderName: folderName,
		DryRun:     opts.DryRun,
	}

	// Step 1: whole-folder dedup. Force and dry-run both look past it.
	if s.ledger.IsFolderImported(folderName) && !opts.ForceReimport && !opts.DryRun {
		logger.Info("folder %s already imported, skipping", folderName)
		report.Skipped = true
		report.Duration = time.Since(start)
		return report, nil
	}

	// Step 2: discover and classify export files.
	files, err := s.discoverExports(dir)
	if err != nil {
		return nil, err
	}

	report.Analysis = s.analyze(files)
	logger.Section("ingest " + folderName)
	logger.Info("found %d projects (%d new), %d conversations (%d new)",
		report.Analysis.TotalProjects, report.Analysis.NewProjects,
		report.Analysis.TotalConversations, report.Analysis.NewConversations)

	// Step 3: dry-run stops after analysis.
	if opts.DryRun {
		report.Duration = time.Since(start)
		return report, nil
	}

	// Step 4: absorb records. A malformed or failing record is counted
	// and skipped, never fatal.
	for _, p := range files.projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.UUID == "" {
			report.Failed++
			continue
		}
		if s.ledger.IsProjectImported(p.UUID) && !opts.ForceReimport {
			report.SkippedCount++
			continue
		}
		created, err := s.absorbProject(ctx, p)
		if err != nil {
			logger.Warn("project %s failed: %v", p.UUID, err)
			report.Failed++
			continue
		}
		s.ledger.AddProjectID(p.UUID)
		report.Processed++
		report.ChunksCreated += created
	}

	for _, c := range files.conversations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.UUID == "" {
			report.Failed++
			continue
		}
		if s.ledger.IsConversationImported(c.UUID) && !opts.ForceReimport {
			report.SkippedCount++
			continue
		}
		created, err := s.absorbConversation(ctx, c, domain.SourceConversation, c.Name)
		if err != nil {
			logger.Warn("conversation %s failed: %v", c.UUID, err)
			report.Failed++
			continue
		}
		s.ledger.AddConversationID(c.UUID)
		report.Processed++
		report.ChunksCreated += created
	}

	// Step 5: persist the ledger and drop stale cached reads.
	err = s.ledger.MarkFolderImported(folderName, ledger.FolderRecord{
		Projects:         report.Analysis.TotalProjects,
		Conversations:    report.Analysis.TotalConversations,
		ChunksCreated:    report.ChunksCreated,
		NewProjects:      report.Analysis.NewProjects,
		NewConversations: report.Analysis.NewConversations,
	})
	if err != nil {
		return nil, fmt.Errorf("recording import: %w", err)
	}
	invalidateQueryCaches(ctx, s.cache)

	sum := s.ledger.Summarize()
	report.LedgerFolders = sum.Folders
	report.LedgerConversations = sum.ConversationIDs
	report.LedgerProjects = sum.ProjectIDs

	report.Duration = time.Since(start)
	logger.Info("folder %s done: %d processed, %d skipped, %d failed, %d chunks",
		folderName, report.Processed, report.SkippedCount, report.Failed, report.ChunksCreated)

	return report, nil
}

// discoverExports classifies every JSON file in dir by shape: elements
// carrying chat_conversations are a projects export, elements carrying
// chat_messages are a conversations export. Filenames do not matter.
func (s *IngestService) discoverExports(dir string) (*exportFiles, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading export folder: %w", err)
	}

	files := &exportFiles{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("unreadable export file %s: %v", path, err)
			continue
		}

		var probe []map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil || len(probe) == 0 {
			continue
		}

		switch {
		case hasKey(probe[0], "chat_conversations"):
			if err := json.Unmarshal(data, &files.projects); err != nil {
				logger.Warn("projects file %s undecodable: %v", path, err)
				continue
			}
			files.projectsPath = path
		case hasKey(probe[0], "chat_messages"):
			if err := json.Unmarshal(data, &files.conversations); err != nil {
				logger.Warn("conversations file %s undecodable: %v", path, err)
				continue
			}
			files.conversationsPath = path
		}
	}

	if files.projectsPath == "" && files.conversationsPath == "" {
		return nil, fmt.Errorf("folder %s: %w", dir, domain.ErrNoExportFiles)
	}
	return files, nil
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}

// analyze counts total and not-yet-imported records.
func (s *IngestService) analyze(files *exportFiles) domain.FolderAnalysis {
	a := domain.FolderAnalysis{
		ProjectsFile:       files.projectsPath,
		ConversationsFile:  files.conversationsPath,
		TotalProjects:      len(files.projects),
		TotalConversations: len(files.conversations),
	}
	for _, p := range files.projects {
		if !s.ledger.IsProjectImported(p.UUID) {
			a.NewProjects++
		}
	}
	for _, c := range files.conversations {
		if !s.ledger.IsConversationImported(c.UUID) {
			a.NewConversations++
		}
	}
	return a
}

// absorbProject ingests every conversation of a project into the project
// collection, named after the project.
func (s *IngestService) absorbProject(ctx context.Context, p domain.ExportProject) (int, error) {
	var created int
	for _, conv := range p.Conversations {
		n, err := s.absorbConversation(ctx, conv, domain.SourceProject, p.Name)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

// absorbConversation chunks and stores one conversation's messages and
// attachment contents.
func (s *IngestService) absorbConversation(ctx context.Context, conv domain.ExportConversation, src domain.SourceType, sourceName string) (int, error) {
	info, ok := collectionFor(src)
	if !ok {
		return 0, fmt.Errorf("%w: no collection for source %q", domain.ErrInvalidInput, src)
	}

	var docs []driven.Document
	total := len(conv.Messages)

	for mi, msg := range conv.Messages {
		createdAt := parseExportTime(msg.CreatedAt)

		segments := s.splitter.Split(msg.Text)
		chunkIdx := 0
		appendChunk := func(content string, ctype domain.ChunkType, sender string, extra map[string]string) {
			c := domain.Chunk{
				ChunkID:        domain.NewChunkID(conv.UUID, msg.UUID, chunkIdx),
				ConversationID: conv.UUID,
				MessageID:      msg.UUID,
				ChunkIndex:     chunkIdx,
				Content:        content,
				Category:       categorizer.CategorizeWithContext(content, conv.Name),
				ChunkType:      ctype,
				Sender:         sender,
				CreatedAt:      createdAt,
				MessageIndex:   mi,
				TotalMessages:  total,
				SourceType:     src,
				SourceName:     sourceName,
				Extra:          extra,
			}
			docs = append(docs, documentFromChunk(c, info))
			chunkIdx++
		}

		for _, seg := range segments {
			appendChunk(seg, domain.ChunkTypeMessage, msg.Sender, nil)
		}
		for _, att := range msg.Attachments {
			if strings.TrimSpace(att.ExtractedContent) == "" {
				continue
			}
			extra := map[string]string{"file_name": att.FileName}
			if att.FileType != "" {
				extra["file_type"] = att.FileType
			}
			for _, seg := range s.splitter.Split(att.ExtractedContent) {
				appendChunk(seg, domain.ChunkTypeAttachment, "attachment", extra)
			}
		}

		// Backfill the per-message chunk total now that it is known.
		for i := len(docs) - chunkIdx; i < len(docs); i++ {
			docs[i].Metadata[metaTotalChunks] = chunkIdx
		}
	}

	if len(docs) == 0 {
		return 0, nil
	}
	if err := s.store.Add(ctx, info.Name, docs); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}
	return len(docs), nil
}

// parseExportTime parses export timestamps, which appear both with and
// without fractional seconds. Unparsable values yield a zero time; the
// chunk simply gets no recency boost.
func parseExportTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// IngestDir imports every export folder under root, oldest first by
// folder name. Folders without export files are skipped with a warning.
func (s *IngestService) IngestDir(ctx context.Context, root string, opts domain.IngestOptions) ([]*domain.IngestReport, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading import root: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	// Export folders carry date-stamped names, so lexical order is
	// chronological order.
	sort.Strings(dirs)

	var reports []*domain.IngestReport
	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.IngestFolder(ctx, filepath.Join(root, name), opts)
		if err != nil {
			if errors.Is(err, domain.ErrNoExportFiles) {
				logger.Debug("folder %s has no export files, skipping", name)
				continue
			}
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Watch imports existing folders under root, then blocks importing new
// ones as they appear, until the context is cancelled.
func (s *IngestService) Watch(ctx context.Context, root string, opts domain.IngestOptions) error {
	if _, err := s.IngestDir(ctx, root, opts); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	logger.Info("watching %s for new export folders", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			fi, err := os.Stat(event.Name)
			if err != nil || !fi.IsDir() {
				continue
			}

			// Give the copy time to finish before reading it.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(watchSettleDelay):
			}

			report, err := s.IngestFolder(ctx, event.Name, opts)
			if err != nil {
				if errors.Is(err, domain.ErrNoExportFiles) {
					logger.Debug("folder %s has no export files yet", event.Name)
					continue
				}
				logger.Warn("ingesting %s failed: %v", event.Name, err)
				continue
			}
			logger.Info("ingested %s: %d chunks", report.FolderName, report.ChunksCreated)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}
