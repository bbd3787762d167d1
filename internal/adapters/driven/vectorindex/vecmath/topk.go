package vecmath

import (
	"container/heap"
	"sort"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Candidate is a scored entry identified by its insertion ordinal.
type Candidate struct {
	Ordinal int
	Score   float64
}

// Better reports whether a ranks before b under the metric.
// Equal scores fall back to insertion order, earlier first.
func Better(metric domain.Metric, a, b Candidate) bool {
	if a.Score != b.Score {
		if metric.HigherIsBetter() {
			return a.Score > b.Score
		}
		return a.Score < b.Score
	}
	return a.Ordinal < b.Ordinal
}

// Sort orders candidates best first.
func Sort(metric domain.Metric, cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		return Better(metric, cands[i], cands[j])
	})
}

// TopK keeps the k best candidates seen so far.
// The worst kept candidate sits at the heap root so it can be evicted.
type TopK struct {
	k    int
	heap candidateHeap
}

// NewTopK creates a collector for k candidates. Capacity for k is
// allocated up front, so k should not exceed the number of candidates.
func NewTopK(metric domain.Metric, k int) *TopK {
	return &TopK{
		k: k,
		heap: candidateHeap{
			items: make([]Candidate, 0, max(k, 0)),
			less: func(a, b Candidate) bool {
				return Better(metric, b, a)
			},
		},
	}
}

// Push offers a candidate.
func (t *TopK) Push(c Candidate) {
	if t.k <= 0 {
		return
	}
	if t.heap.Len() < t.k {
		heap.Push(&t.heap, c)
		return
	}
	if t.heap.less(t.heap.items[0], c) {
		t.heap.items[0] = c
		heap.Fix(&t.heap, 0)
	}
}

// Len returns the number of kept candidates.
func (t *TopK) Len() int {
	return t.heap.Len()
}

// Results drains the collector, best first.
func (t *TopK) Results() []Candidate {
	out := make([]Candidate, t.heap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.heap).(Candidate)
	}
	return out
}

// candidateHeap is a heap of candidates ordered by less.
type candidateHeap struct {
	items []Candidate
	less  func(a, b Candidate) bool
}

// NewHeap returns an empty heap ordered by less.
func NewHeap(less func(a, b Candidate) bool) heap.Interface {
	return &candidateHeap{less: less}
}

func (h candidateHeap) Len() int           { return len(h.items) }
func (h candidateHeap) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h candidateHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *candidateHeap) Push(x any) {
	h.items = append(h.items, x.(Candidate))
}

func (h *candidateHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// Peek returns the root of a heap created by NewHeap.
func Peek(h heap.Interface) Candidate {
	return h.(*candidateHeap).items[0]
}
