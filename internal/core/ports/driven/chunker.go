package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Chunker splits a document into an ordered sequence of chunks.
// Implementations must be deterministic: the same document and
// configuration always yield the same chunk IDs and text.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits the document. Empty text yields no chunks.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
