package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Answer is a generated response with the context it was grounded on.
type Answer struct {
	Text    string
	Prompt  string
	Sources []domain.SearchResult
}

// AnswerService answers a question from retrieved context.
type AnswerService interface {
	// Ask retrieves, assembles and generates.
	// Returns domain.ErrLLMUnavailable when no generation provider is set.
	Ask(ctx context.Context, query string, opts domain.RetrieveOptions) (*Answer, error)

	// Context retrieves and assembles without generating, within the
	// configured character budget.
	Context(ctx context.Context, query string, opts domain.RetrieveOptions) (string, []domain.SearchResult, error)

	// ContextWithin is Context with an explicit budget. A non-positive
	// maxContextChars uses the configured one.
	ContextWithin(
		ctx context.Context, query string, opts domain.RetrieveOptions, maxContextChars int,
	) (string, []domain.SearchResult, error)
}
