// Package hnsw provides an approximate vector index built on a
// Hierarchical Navigable Small World graph.
//
// Reference: "Efficient and robust approximate nearest neighbor search using
// Hierarchical Navigable Small World graphs" by Malkov & Yashunin (2016).
//
// The graph narrows the search to a candidate set; every candidate is scored
// exactly and the final ordering uses the same tie-break as the exact index.
package hnsw

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex/vecmath"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// maxLevel caps the number of graph layers.
const maxLevel = 16

// seed makes graph construction reproducible.
const seed = 42

var _ driven.VectorIndex = (*Index)(nil)

// Config contains the graph parameters.
type Config struct {
	// M is the maximum number of connections per node on upper layers.
	// Layer 0 allows 2*M.
	M int

	// EfConstruction is the beam width during insertion.
	EfConstruction int

	// EfSearch is the beam width during search. Searches use max(EfSearch, k).
	EfSearch int
}

// DefaultConfig returns sensible defaults for HNSW.
func DefaultConfig() Config {
	return Config{
		M:              16,
		EfConstruction: 200,
		EfSearch:       64,
	}
}

type node struct {
	vector    []float32
	neighbors [][]int
}

// Index is an approximate nearest-neighbour index.
// Search takes a read lock; Build and Add take the write lock.
type Index struct {
	metric domain.Metric
	config Config
	ml     float64

	mu         sync.RWMutex
	dim        int
	entries    []domain.IndexEntry
	byID       map[string]int
	nodes      []*node
	entryPoint int
	topLevel   int
	rng        *rand.Rand
}

// New creates an empty index. A dim of 0 defers the dimension to the
// first non-empty Build or Add.
func New(metric domain.Metric, dim int, config Config) (*Index, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidConfig, metric)
	}
	if dim < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", domain.ErrInvalidConfig, dim)
	}
	if config.M < 2 || config.EfConstruction <= 0 || config.EfSearch <= 0 {
		return nil, fmt.Errorf("%w: hnsw requires m >= 2 and positive ef values", domain.ErrInvalidConfig)
	}

	idx := &Index{
		metric: metric,
		config: config,
		ml:     1 / math.Log(float64(config.M)),
		dim:    dim,
	}
	idx.reset()
	return idx, nil
}

func (idx *Index) reset() {
	idx.entries = nil
	idx.byID = make(map[string]int)
	idx.nodes = nil
	idx.entryPoint = -1
	idx.topLevel = -1
	idx.rng = rand.New(rand.NewSource(seed))
}

// Build replaces the index contents.
func (idx *Index) Build(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim, err := vecmath.CheckEntries(entries, idx.dim, nil)
	if err != nil {
		return err
	}

	idx.reset()
	idx.dim = dim
	for _, e := range entries {
		idx.insert(e)
	}
	return nil
}

// Add inserts entries into the existing graph.
func (idx *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim, err := vecmath.CheckEntries(entries, idx.dim, func(id string) bool {
		_, ok := idx.byID[id]
		return ok
	})
	if err != nil {
		return err
	}

	idx.dim = dim
	for _, e := range entries {
		idx.insert(e)
	}
	return nil
}

// insert adds one entry to the graph (caller must hold the write lock).
func (idx *Index) insert(e domain.IndexEntry) {
	e = vecmath.CloneEntry(e)
	ord := len(idx.nodes)
	level := idx.randomLevel()

	n := &node{
		vector:    vecmath.Prepare(idx.metric, e.Embedding),
		neighbors: make([][]int, level+1),
	}
	idx.entries = append(idx.entries, e)
	idx.nodes = append(idx.nodes, n)
	idx.byID[e.Chunk.ID] = ord

	if idx.entryPoint < 0 {
		idx.entryPoint = ord
		idx.topLevel = level
		return
	}

	ep := idx.entryPoint
	for l := idx.topLevel; l > level; l-- {
		ep = idx.greedy(n.vector, ep, l)
	}

	for l := min(level, idx.topLevel); l >= 0; l-- {
		cands := idx.searchLayer(n.vector, ep, idx.config.EfConstruction, l)
		limit := idx.maxConnections(l)
		if len(cands) > limit {
			cands = cands[:limit]
		}

		n.neighbors[l] = make([]int, 0, len(cands))
		for _, c := range cands {
			n.neighbors[l] = append(n.neighbors[l], c.Ordinal)

			nb := idx.nodes[c.Ordinal]
			nb.neighbors[l] = append(nb.neighbors[l], ord)
			if len(nb.neighbors[l]) > limit {
				nb.neighbors[l] = idx.prune(nb.vector, nb.neighbors[l], limit)
			}
		}

		if len(cands) > 0 {
			ep = cands[0].Ordinal
		}
	}

	if level > idx.topLevel {
		idx.entryPoint = ord
		idx.topLevel = level
	}
}

func (idx *Index) maxConnections(layer int) int {
	if layer == 0 {
		return 2 * idx.config.M
	}
	return idx.config.M
}

// greedy walks layer l towards q and returns the closest node found.
func (idx *Index) greedy(q []float32, ep, l int) int {
	best := idx.candidate(q, ep)
	for changed := true; changed; {
		changed = false
		for _, nb := range idx.nodes[best.Ordinal].neighbors[l] {
			c := idx.candidate(q, nb)
			if vecmath.Better(idx.metric, c, best) {
				best = c
				changed = true
			}
		}
	}
	return best.Ordinal
}

func (idx *Index) candidate(q []float32, ord int) vecmath.Candidate {
	return vecmath.Candidate{Ordinal: ord, Score: vecmath.Score(idx.metric, q, idx.nodes[ord].vector)}
}

// searchLayer runs a beam search of width ef on layer l and returns the
// candidates found, best first.
func (idx *Index) searchLayer(q []float32, ep, ef, l int) []vecmath.Candidate {
	better := func(a, b vecmath.Candidate) bool { return vecmath.Better(idx.metric, a, b) }
	worse := func(a, b vecmath.Candidate) bool { return vecmath.Better(idx.metric, b, a) }

	visited := map[int]struct{}{ep: {}}
	start := idx.candidate(q, ep)

	frontier := vecmath.NewHeap(better)
	heap.Push(frontier, start)
	results := vecmath.NewHeap(worse)
	heap.Push(results, start)

	for frontier.Len() > 0 {
		c := heap.Pop(frontier).(vecmath.Candidate)
		if results.Len() >= ef && better(vecmath.Peek(results), c) {
			break
		}

		n := idx.nodes[c.Ordinal]
		if l >= len(n.neighbors) {
			continue
		}
		for _, nb := range n.neighbors[l] {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}

			cand := idx.candidate(q, nb)
			if results.Len() < ef || better(cand, vecmath.Peek(results)) {
				heap.Push(frontier, cand)
				heap.Push(results, cand)
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]vecmath.Candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(vecmath.Candidate)
	}
	return out
}

// prune keeps the limit neighbours closest to vector.
func (idx *Index) prune(vector []float32, neighbors []int, limit int) []int {
	cands := make([]vecmath.Candidate, len(neighbors))
	for i, nb := range neighbors {
		cands[i] = idx.candidate(vector, nb)
	}
	vecmath.Sort(idx.metric, cands)

	out := make([]int, limit)
	for i := range out {
		out[i] = cands[i].Ordinal
	}
	return out
}

// randomLevel draws floor(-ln(U) * mL), capped at maxLevel.
func (idx *Index) randomLevel() int {
	level := int(math.Floor(-math.Log(1-idx.rng.Float64()) * idx.ml))
	return min(level, maxLevel)
}

// Search returns up to k approximate nearest entries for query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := vecmath.CheckQuery(query, k, idx.dim); err != nil {
		return nil, err
	}
	if idx.entryPoint < 0 {
		return []driven.VectorHit{}, nil
	}
	k = min(k, len(idx.nodes))

	q := vecmath.Prepare(idx.metric, query)
	ep := idx.entryPoint
	for l := idx.topLevel; l > 0; l-- {
		ep = idx.greedy(q, ep, l)
	}

	cands := idx.searchLayer(q, ep, max(idx.config.EfSearch, k), 0)
	if len(cands) > k {
		cands = cands[:k]
	}

	hits := make([]driven.VectorHit, len(cands))
	for i, c := range cands {
		hits[i] = driven.VectorHit{
			ChunkID: idx.entries[c.Ordinal].Chunk.ID,
			Score:   c.Score,
			Ordinal: c.Ordinal,
		}
	}
	return hits, nil
}

// Chunk returns the payload stored for a chunk ID.
func (idx *Index) Chunk(chunkID string) (domain.Chunk, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ord, ok := idx.byID[chunkID]
	if !ok {
		return domain.Chunk{}, false
	}
	chunk := idx.entries[ord].Chunk
	chunk.Metadata = domain.CopyMetadata(chunk.Metadata)
	return chunk, true
}

// Entries returns every entry in insertion order.
func (idx *Index) Entries() []domain.IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.IndexEntry, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = vecmath.CloneEntry(e)
	}
	return out
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimension returns D, or 0 before the first vector.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dim
}

// Metric returns the similarity metric.
func (idx *Index) Metric() domain.Metric {
	return idx.metric
}

// Kind returns domain.IndexKindHNSW.
func (idx *Index) Kind() domain.IndexKind {
	return domain.IndexKindHNSW
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}
