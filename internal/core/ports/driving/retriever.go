package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Retriever turns a query into ranked chunks.
type Retriever interface {
	// Retrieve returns at most opts.K results ordered by similarity.
	// An empty slice is a valid outcome, not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.SearchResult, error)
}
