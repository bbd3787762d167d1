package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// VectorIndex provides nearest-neighbour search over chunk embeddings.
//
// The metric is fixed at construction. The dimension is fixed at
// construction or by the first non-empty Build or Add.
// Search is safe to call concurrently; Build and Add are serialised
// against each other and against Search.
type VectorIndex interface {
	// Build replaces the index contents with entries.
	// An empty slice yields a valid, empty index.
	Build(ctx context.Context, entries []domain.IndexEntry) error

	// Add appends entries without renumbering existing ones.
	// Validation is all-or-nothing.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// Search returns at most k hits, best first.
	// Ties are broken by insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Chunk returns the payload stored for a chunk ID.
	Chunk(chunkID string) (domain.Chunk, bool)

	// Entries returns every entry in insertion order.
	Entries() []domain.IndexEntry

	// Len returns the number of entries.
	Len() int

	// Dimension returns D, or 0 while the index has never held a vector.
	Dimension() int

	// Metric returns the similarity metric.
	Metric() domain.Metric

	// Kind identifies the implementation.
	Kind() domain.IndexKind

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is a similarity or a distance, depending on the metric.
	Score float64

	// Ordinal is the insertion position of the entry.
	Ordinal int
}
