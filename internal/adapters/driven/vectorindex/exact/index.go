// Package exact provides a brute-force vector index.
//
// Every search scores the query against every stored vector and keeps the
// top k in a bounded heap. Large indexes are scanned by parallel workers
// whose partial results are merged.
//
// Readers work on an immutable snapshot; Build and Add publish a new
// snapshot atomically under a writer lock, so searches never block on
// writes and never observe a half-applied batch.
package exact

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex/vecmath"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// DefaultParallelThreshold is the entry count above which searches fan out.
const DefaultParallelThreshold = 4096

var _ driven.VectorIndex = (*Index)(nil)

// snapshot is never mutated after publication.
type snapshot struct {
	dim     int
	entries []domain.IndexEntry
	vectors [][]float32
	byID    map[string]int
}

// Index is an exact nearest-neighbour index.
type Index struct {
	metric    domain.Metric
	workers   int
	threshold int

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// Option configures the index.
type Option func(*Index)

// WithWorkers sets the number of goroutines used for large scans.
func WithWorkers(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithParallelThreshold sets the entry count above which scans fan out.
func WithParallelThreshold(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.threshold = n
		}
	}
}

// New creates an empty index. A dim of 0 defers the dimension to the
// first non-empty Build or Add.
func New(metric domain.Metric, dim int, opts ...Option) (*Index, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidConfig, metric)
	}
	if dim < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", domain.ErrInvalidConfig, dim)
	}

	idx := &Index{
		metric:    metric,
		workers:   runtime.GOMAXPROCS(0),
		threshold: DefaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(idx)
	}

	idx.current.Store(&snapshot{dim: dim, byID: map[string]int{}})
	return idx, nil
}

// Build replaces the index contents.
func (idx *Index) Build(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	old := idx.current.Load()
	dim, err := vecmath.CheckEntries(entries, old.dim, nil)
	if err != nil {
		return err
	}

	next := &snapshot{
		dim:     dim,
		entries: make([]domain.IndexEntry, 0, len(entries)),
		vectors: make([][]float32, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	idx.appendTo(next, entries)
	idx.current.Store(next)
	return nil
}

// Add appends entries. Existing ordinals are unchanged.
func (idx *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	old := idx.current.Load()
	dim, err := vecmath.CheckEntries(entries, old.dim, func(id string) bool {
		_, ok := old.byID[id]
		return ok
	})
	if err != nil {
		return err
	}

	size := len(old.entries) + len(entries)
	next := &snapshot{
		dim:     dim,
		entries: make([]domain.IndexEntry, len(old.entries), size),
		vectors: make([][]float32, len(old.vectors), size),
		byID:    make(map[string]int, size),
	}
	copy(next.entries, old.entries)
	copy(next.vectors, old.vectors)
	for id, ord := range old.byID {
		next.byID[id] = ord
	}
	idx.appendTo(next, entries)
	idx.current.Store(next)
	return nil
}

func (idx *Index) appendTo(s *snapshot, entries []domain.IndexEntry) {
	for _, e := range entries {
		e = vecmath.CloneEntry(e)
		s.byID[e.Chunk.ID] = len(s.entries)
		s.entries = append(s.entries, e)
		s.vectors = append(s.vectors, vecmath.Prepare(idx.metric, e.Embedding))
	}
}

// Search returns the k best entries for query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := idx.current.Load()
	if err := vecmath.CheckQuery(query, k, s.dim); err != nil {
		return nil, err
	}
	if len(s.vectors) == 0 {
		return []driven.VectorHit{}, nil
	}
	k = min(k, len(s.vectors))

	q := vecmath.Prepare(idx.metric, query)

	var cands []vecmath.Candidate
	if len(s.vectors) > idx.threshold && idx.workers > 1 {
		cands = idx.scanParallel(s, q, k)
	} else {
		cands = idx.scan(s, q, k, 0, len(s.vectors))
	}

	hits := make([]driven.VectorHit, len(cands))
	for i, c := range cands {
		hits[i] = driven.VectorHit{
			ChunkID: s.entries[c.Ordinal].Chunk.ID,
			Score:   c.Score,
			Ordinal: c.Ordinal,
		}
	}
	return hits, nil
}

// scan scores vectors[start:end] and returns the k best, best first.
func (idx *Index) scan(s *snapshot, q []float32, k, start, end int) []vecmath.Candidate {
	top := vecmath.NewTopK(idx.metric, min(k, end-start))
	for i := start; i < end; i++ {
		top.Push(vecmath.Candidate{Ordinal: i, Score: vecmath.Score(idx.metric, q, s.vectors[i])})
	}
	return top.Results()
}

// scanParallel splits the snapshot across workers and merges partial results.
func (idx *Index) scanParallel(s *snapshot, q []float32, k int) []vecmath.Candidate {
	n := len(s.vectors)
	size := (n + idx.workers - 1) / idx.workers

	partials := make([][]vecmath.Candidate, idx.workers)
	var wg sync.WaitGroup
	for w := 0; w < idx.workers; w++ {
		start := w * size
		if start >= n {
			break
		}
		end := min(start+size, n)

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			partials[w] = idx.scan(s, q, k, start, end)
		}(w, start, end)
	}
	wg.Wait()

	merged := vecmath.NewTopK(idx.metric, k)
	for _, part := range partials {
		for _, c := range part {
			merged.Push(c)
		}
	}
	return merged.Results()
}

// Chunk returns the payload stored for a chunk ID.
func (idx *Index) Chunk(chunkID string) (domain.Chunk, bool) {
	s := idx.current.Load()
	ord, ok := s.byID[chunkID]
	if !ok {
		return domain.Chunk{}, false
	}
	chunk := s.entries[ord].Chunk
	chunk.Metadata = domain.CopyMetadata(chunk.Metadata)
	return chunk, true
}

// Entries returns every entry in insertion order.
func (idx *Index) Entries() []domain.IndexEntry {
	s := idx.current.Load()
	out := make([]domain.IndexEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = vecmath.CloneEntry(e)
	}
	return out
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.current.Load().entries)
}

// Dimension returns D, or 0 before the first vector.
func (idx *Index) Dimension() int {
	return idx.current.Load().dim
}

// Metric returns the similarity metric.
func (idx *Index) Metric() domain.Metric {
	return idx.metric
}

// Kind returns domain.IndexKindExact.
func (idx *Index) Kind() domain.IndexKind {
	return domain.IndexKindExact
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}
