package vecmath

import (
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// CheckEntries validates a batch before it is written to an index.
//
// dim is the index dimension, or 0 when not yet fixed. The returned
// dimension is the one the batch establishes. exists reports chunk IDs
// already present in the index and may be nil.
func CheckEntries(entries []domain.IndexEntry, dim int, exists func(id string) bool) (int, error) {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Chunk.ID == "" {
			return 0, fmt.Errorf("%w: entry %d has no chunk id", domain.ErrInvalidInput, i)
		}
		if len(e.Embedding) == 0 {
			return 0, fmt.Errorf("%w: entry %d (%s) has an empty embedding", domain.ErrDimensionMismatch, i, e.Chunk.ID)
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("%w: entry %d (%s) has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, e.Chunk.ID, len(e.Embedding), dim)
		}
		if _, dup := seen[e.Chunk.ID]; dup {
			return 0, fmt.Errorf("%w: chunk %s appears twice", domain.ErrAlreadyExists, e.Chunk.ID)
		}
		if exists != nil && exists(e.Chunk.ID) {
			return 0, fmt.Errorf("%w: chunk %s is already indexed", domain.ErrAlreadyExists, e.Chunk.ID)
		}
		seen[e.Chunk.ID] = struct{}{}
	}
	return dim, nil
}

// CheckQuery validates a search request against an index of dimension dim.
func CheckQuery(query []float32, k, dim int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if dim > 0 && len(query) != dim {
		return fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(query), dim)
	}
	return nil
}

// CloneEntry copies an entry so callers cannot mutate indexed state.
func CloneEntry(e domain.IndexEntry) domain.IndexEntry {
	emb := make([]float32, len(e.Embedding))
	copy(emb, e.Embedding)
	chunk := e.Chunk
	chunk.Metadata = domain.CopyMetadata(e.Chunk.Metadata)
	return domain.IndexEntry{Chunk: chunk, Embedding: emb}
}
