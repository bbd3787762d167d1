// Package vectorindex selects a vector index implementation from settings.
package vectorindex

import (
	"fmt"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex/exact"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex/hnsw"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// New creates an empty index of the configured kind.
// A dim of 0 lets the first Build or Add fix the dimension.
func New(settings domain.IndexSettings, dim int) (driven.VectorIndex, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	switch settings.Kind {
	case domain.IndexKindExact:
		return exact.New(settings.Metric, dim)
	case domain.IndexKindHNSW:
		return hnsw.New(settings.Metric, dim, hnsw.Config{
			M:              settings.HNSWM,
			EfConstruction: settings.HNSWEfConstruction,
			EfSearch:       settings.HNSWEfSearch,
		})
	default:
		return nil, fmt.Errorf("%w: index kind %q", domain.ErrUnsupportedType, settings.Kind)
	}
}
