package driving

import (
	"context"
	"time"
)

// SyncOrchestrator feeds documents from connectors into the indexer.
type SyncOrchestrator interface {
	// Sync reads every document from the connectors and indexes them.
	// With rebuild, or when the index is empty, the corpus replaces the
	// index. Otherwise only documents not yet indexed are added.
	Sync(ctx context.Context, rebuild bool) (SyncReport, error)

	// Watch re-indexes as the connectors report changes.
	// It blocks until ctx is done.
	Watch(ctx context.Context) error

	// Status returns the current sync state.
	Status() SyncStatus
}

// SyncReport summarises one sync pass.
type SyncReport struct {
	IndexReport

	// Read is the number of raw documents the connectors produced.
	Read int

	// Failed counts documents that could not be normalised.
	Failed int

	// Existing counts documents skipped because they were already indexed.
	Existing int

	// Rebuilt is true when the index was replaced rather than extended.
	Rebuilt bool
}

// SyncStatus represents the current state of the orchestrator.
type SyncStatus struct {
	// Running indicates if a sync is currently in progress.
	Running bool

	// DocumentsProcessed is the count of documents indexed so far.
	DocumentsProcessed int

	// ErrorCount is the number of errors encountered.
	ErrorCount int

	// LastSync is when the last successful sync finished.
	LastSync time.Time

	// LastError describes the most recent failure, if any.
	LastError string
}
