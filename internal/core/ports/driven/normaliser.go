package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Normaliser extracts indexable text from raw documents.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise produces a document with its text populated.
	// Chunking happens later, in the indexer.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
