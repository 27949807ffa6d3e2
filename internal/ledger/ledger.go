// Package ledger tracks which export folders and which individual records
// have already been ingested, so repeated imports of overlapping exports
// never duplicate data.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// FolderRecord is the stored metadata for one imported folder.
type FolderRecord struct {
	ImportedAt       time.Time `json:"imported_at"`
	Projects         int       `json:"projects"`
	Conversations    int       `json:"conversations"`
	ChunksCreated    int       `json:"chunks_created"`
	NewProjects      int       `json:"new_projects"`
	NewConversations int       `json:"new_conversations"`
}

// Summary reports ledger totals.
type Summary struct {
	Folders         int
	ConversationIDs int
	ProjectIDs      int
	LastUpdated     time.Time
}

type fileFormat struct {
	Imports           map[string]FolderRecord `json:"imports"`
	ConversationUUIDs []string                `json:"conversation_uuids"`
	ProjectUUIDs      []string                `json:"project_uuids"`
	LastUpdated       time.Time               `json:"last_updated"`
}

// Ledger is the persistent import state. All methods are safe for
// concurrent use, though ingestion runs single-writer; the lock guards
// readers racing a flush.
type Ledger struct {
	mu   sync.RWMutex
	path string

	imports           map[string]FolderRecord
	conversationUUIDs map[string]struct{}
	projectUUIDs      map[string]struct{}
	lastUpdated       time.Time
}

// Load reads the ledger at path. A missing or unreadable file yields an
// empty ledger with a warning rather than an error: losing dedup state
// must never block an import.
func Load(path string) *Ledger {
	l := &Ledger{
		path:              path,
		imports:           make(map[string]FolderRecord),
		conversationUUIDs: make(map[string]struct{}),
		projectUUIDs:      make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("ledger unreadable, starting empty: %v", err)
		}
		return l
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		logger.Warn("ledger corrupt, starting empty: %v", err)
		return l
	}

	if ff.Imports != nil {
		l.imports = ff.Imports
	}
	for _, id := range ff.ConversationUUIDs {
		l.conversationUUIDs[id] = struct{}{}
	}
	for _, id := range ff.ProjectUUIDs {
		l.projectUUIDs[id] = struct{}{}
	}
	l.lastUpdated = ff.LastUpdated

	logger.Debug("ledger loaded: %d folders, %d conversations, %d projects",
		len(l.imports), len(l.conversationUUIDs), len(l.projectUUIDs))

	return l
}

// IsFolderImported reports whether folderName has completed an import.
func (l *Ledger) IsFolderImported(folderName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.imports[folderName]
	return ok
}

// IsConversationImported reports whether the conversation was seen before.
func (l *Ledger) IsConversationImported(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.conversationUUIDs[id]
	return ok
}

// IsProjectImported reports whether the project was seen before.
func (l *Ledger) IsProjectImported(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.projectUUIDs[id]
	return ok
}

// AddConversationID records a conversation as ingested. The change lives
// in memory until Flush or MarkFolderImported persists it.
func (l *Ledger) AddConversationID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conversationUUIDs[id] = struct{}{}
}

// AddProjectID records a project as ingested.
func (l *Ledger) AddProjectID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projectUUIDs[id] = struct{}{}
}

// MarkFolderImported records folder completion and persists the full
// ledger immediately. A crash after this point must not cause re-import.
func (l *Ledger) MarkFolderImported(folderName string, rec FolderRecord) error {
	l.mu.Lock()
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	l.imports[folderName] = rec
	l.mu.Unlock()

	return l.Flush()
}

// Flush writes the ledger to disk atomically: serialize to a temp file in
// the same directory, then rename over the destination. Readers never see
// a partially written ledger.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastUpdated = time.Now().UTC()

	ff := fileFormat{
		Imports:           l.imports,
		ConversationUUIDs: sortedKeys(l.conversationUUIDs),
		ProjectUUIDs:      sortedKeys(l.projectUUIDs),
		LastUpdated:       l.lastUpdated,
	}

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ledger: %w", err)
	}

	return nil
}

// Summarize returns current totals.
func (l *Ledger) Summarize() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Summary{
		Folders:         len(l.imports),
		ConversationIDs: len(l.conversationUUIDs),
		ProjectIDs:      len(l.projectUUIDs),
		LastUpdated:     l.lastUpdated,
	}
}

// sortedKeys keeps file output stable so ledger diffs stay readable.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
