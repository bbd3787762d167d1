package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// IndexStore persists vector index snapshots between runs.
type IndexStore interface {
	// Save replaces any stored snapshot.
	Save(ctx context.Context, snapshot domain.IndexSnapshot) error

	// Append adds entries to the stored snapshot, after its existing entries.
	// Returns domain.ErrNotFound if nothing has been saved yet.
	Append(ctx context.Context, entries []domain.IndexEntry) error

	// Load returns the stored snapshot.
	// Returns domain.ErrNotFound if nothing has been saved yet.
	Load(ctx context.Context) (domain.IndexSnapshot, error)

	// Close releases resources.
	Close() error
}
