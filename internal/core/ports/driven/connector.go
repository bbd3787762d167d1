package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Connector fetches raw documents from a corpus location.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector's locations exist and are readable.
	Validate(ctx context.Context) error

	// FullSync fetches all documents.
	// Both channels are closed when the walk ends.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes until ctx is done or Close is called.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
