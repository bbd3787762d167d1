package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverService embeds a query and returns the nearest chunks.
type RetrieverService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.RetrieverSettings
	metrics  driven.Metrics
}

// NewRetrieverService creates a retriever.
// The metrics parameter is optional (can be nil).
func NewRetrieverService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.RetrieverSettings,
	metrics driven.Metrics,
) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		index:    index,
		settings: settings,
		metrics:  metricsOrNop(metrics),
	}
}

// Retrieve returns up to opts.K chunks ordered best first.
// A zero K uses the configured default and K is capped at the index size.
// An empty index or no match is an empty slice.
func (r *RetrieverService) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Retrieve")
	defer logger.Timer("Retrieve")()
	logger.Debug("Query: %q", query)

	k := opts.K
	if k == 0 {
		k = r.settings.K
	}
	if k <= 0 {
		return nil, fmt.Errorf("retrieve: %w: k must be positive, got %d", domain.ErrInvalidInput, opts.K)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("retrieve: %w: empty query", domain.ErrInvalidInput)
	}
	for _, f := range opts.Filters {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
	}

	size := r.index.Len()
	if size == 0 {
		logger.Debug("Index is empty")
		return []domain.SearchResult{}, nil
	}
	k = min(k, size)

	candidates := k
	if len(opts.Filters) > 0 {
		candidates = oversample(k, r.settings.OversampleFactor, size)
		logger.Debug("Filters: %v (searching %d candidates)", opts.Filters, candidates)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}

	started := time.Now()
	hits, err := r.index.Search(ctx, vec, candidates)
	r.metrics.ObserveSearch(r.index.Kind().String(), len(hits), time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Index returned %d hits", len(hits))

	results := make([]domain.SearchResult, 0, min(k, len(hits)))
	for _, hit := range hits {
		chunk, ok := r.index.Chunk(hit.ChunkID)
		if !ok {
			logger.Warn("Chunk %s missing from side table", hit.ChunkID)
			continue
		}
		if !domain.MatchAll(opts.Filters, chunk.Metadata) {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: hit.Score})
		if len(results) == k {
			break
		}
	}

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// oversample returns k*factor capped at limit without overflowing.
func oversample(k, factor, limit int) int {
	factor = max(factor, 1)
	if k > limit/factor {
		return limit
	}
	return min(k*factor, limit)
}
