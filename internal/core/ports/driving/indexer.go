package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// IndexReport summarises a build or add.
type IndexReport struct {
	Documents int
	Skipped   int
	Chunks    int
	Entries   int
}

// Indexer runs the build phase: chunk, embed, index, persist.
type Indexer interface {
	// Build replaces the index with the given corpus.
	Build(ctx context.Context, docs []domain.Document) (IndexReport, error)

	// Add extends the index with additional documents.
	Add(ctx context.Context, docs []domain.Document) (IndexReport, error)

	// Load restores the index from the configured store.
	Load(ctx context.Context) error

	// Contains reports whether any chunk of the document is indexed.
	Contains(documentID string) bool

	// Stats describes the current index.
	Stats() domain.IndexStats
}
