package domain

import "time"

// IngestOptions controls a folder import.
type IngestOptions struct {
	// ForceReimport processes a folder even if the ledger already lists it.
	// Per-record dedup still applies.
	ForceReimport bool

	// DryRun analyses the folder (new vs already-seen records) without
	// writing chunks or touching the ledger.
	DryRun bool
}

// FolderAnalysis is the discovery result for one export folder.
type FolderAnalysis struct {
	ProjectsFile      string
	ConversationsFile string

	TotalProjects      int
	NewProjects        int
	TotalConversations int
	NewConversations   int
}

// IngestReport summarises one ingestion run. Partial failures are counted,
// never fatal: a malformed record must not lose the rest of the export.
type IngestReport struct {
	RunID      string
	FolderName string
	DryRun     bool
	Skipped    bool

	Analysis FolderAnalysis

	Processed     int
	SkippedCount  int
	Failed        int
	ChunksCreated int

	// Ledger totals after this run.
	LedgerFolders       int
	LedgerConversations int
	LedgerProjects      int

	Duration time.Duration
}
