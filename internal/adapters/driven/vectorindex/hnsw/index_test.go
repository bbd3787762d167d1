package hnsw

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/vectorindex/exact"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func entry(id string, vec ...float32) domain.IndexEntry {
	return domain.IndexEntry{Chunk: domain.Chunk{ID: id, DocumentID: "doc"}, Embedding: vec}
}

func randomEntries(n, dim int, seed int64) []domain.IndexEntry {
	rng := rand.New(rand.NewSource(seed))
	out := make([]domain.IndexEntry, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		out[i] = entry(fmt.Sprintf("c%d", i), v...)
	}
	return out
}

func newIndex(t *testing.T, metric domain.Metric) *Index {
	t.Helper()
	idx, err := New(metric, 0, DefaultConfig())
	require.NoError(t, err)
	return idx
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(domain.MetricCosine, 0, Config{M: 1, EfConstruction: 10, EfSearch: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New("bogus", 0, DefaultConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIndex_Empty(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	require.NoError(t, idx.Build(context.Background(), nil))

	hits, err := idx.Search(context.Background(), []float32{1, 2, 3}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SelfRecall(t *testing.T) {
	for _, metric := range []domain.Metric{domain.MetricCosine, domain.MetricL2} {
		t.Run(metric.String(), func(t *testing.T) {
			idx := newIndex(t, metric)
			entries := randomEntries(300, 16, 11)
			require.NoError(t, idx.Build(context.Background(), entries))

			found := 0
			for _, e := range entries {
				hits, err := idx.Search(context.Background(), e.Embedding, 1)
				require.NoError(t, err)
				require.Len(t, hits, 1)
				if hits[0].ChunkID == e.Chunk.ID {
					found++
				}
			}
			assert.GreaterOrEqual(t, float64(found)/float64(len(entries)), 0.97)
		})
	}
}

func TestIndex_RecallAgainstExact(t *testing.T) {
	entries := randomEntries(400, 12, 5)

	approx := newIndex(t, domain.MetricCosine)
	require.NoError(t, approx.Build(context.Background(), entries))
	baseline, err := exact.New(domain.MetricCosine, 0)
	require.NoError(t, err)
	require.NoError(t, baseline.Build(context.Background(), entries))

	const k = 10
	total, hit := 0, 0
	for _, q := range randomEntries(30, 12, 77) {
		want, err := baseline.Search(context.Background(), q.Embedding, k)
		require.NoError(t, err)
		got, err := approx.Search(context.Background(), q.Embedding, k)
		require.NoError(t, err)
		require.Len(t, got, k)

		ids := make(map[string]bool, k)
		for _, h := range got {
			ids[h.ChunkID] = true
		}
		for _, h := range want {
			total++
			if ids[h.ChunkID] {
				hit++
			}
		}
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "results must be best first")
		}
	}
	assert.GreaterOrEqual(t, float64(hit)/float64(total), 0.9)
}

func TestIndex_TiesBrokenByInsertionOrder(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	require.NoError(t, idx.Build(context.Background(), []domain.IndexEntry{
		entry("a", 1, 0),
		entry("b", 1, 0),
		entry("c", 0, 1),
		entry("d", 1, 0),
	}))

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"a", "b", "d"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	require.NoError(t, idx.Build(context.Background(), []domain.IndexEntry{entry("a", 1, 0)}))

	assert.ErrorIs(t, idx.Add(context.Background(), []domain.IndexEntry{entry("b", 1)}), domain.ErrDimensionMismatch)
	_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	_, err = idx.Search(context.Background(), []float32{1, 0}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_AddKeepsExistingEntries(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	first := randomEntries(50, 8, 1)
	require.NoError(t, idx.Build(context.Background(), first))

	more := randomEntries(50, 8, 2)
	for i := range more {
		more[i].Chunk.ID = fmt.Sprintf("more-%d", i)
	}
	require.NoError(t, idx.Add(context.Background(), more))
	assert.Equal(t, 100, idx.Len())

	entries := idx.Entries()
	for i, e := range first {
		assert.Equal(t, e.Chunk.ID, entries[i].Chunk.ID)
	}

	assert.ErrorIs(t, idx.Add(context.Background(), more[:1]), domain.ErrAlreadyExists)
	assert.Equal(t, 100, idx.Len())
}

func TestIndex_BuildIsReproducible(t *testing.T) {
	entries := randomEntries(120, 8, 9)
	a := newIndex(t, domain.MetricCosine)
	b := newIndex(t, domain.MetricCosine)
	require.NoError(t, a.Build(context.Background(), entries))
	require.NoError(t, b.Build(context.Background(), entries))

	q := entries[17].Embedding
	ha, err := a.Search(context.Background(), q, 5)
	require.NoError(t, err)
	hb, err := b.Search(context.Background(), q, 5)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestIndex_ConcurrentSearch(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	entries := randomEntries(200, 8, 4)
	require.NoError(t, idx.Build(context.Background(), entries))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := idx.Search(context.Background(), entries[(w*20+i)%len(entries)].Embedding, 3)
				assert.NoError(t, err)
			}
		}(w)
	}
	extra := randomEntries(20, 8, 8)
	for i := range extra {
		extra[i].Chunk.ID = fmt.Sprintf("extra-%d", i)
	}
	require.NoError(t, idx.Add(context.Background(), extra))
	wg.Wait()

	assert.Equal(t, 220, idx.Len())
}

func TestIndex_HugeK(t *testing.T) {
	idx := newIndex(t, domain.MetricCosine)
	require.NoError(t, idx.Build(context.Background(), randomEntries(30, 4, 6)))

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0, 0}, math.MaxInt)

	require.NoError(t, err)
	assert.Len(t, hits, 30)
}

func TestIndex_SearchDuringAdds(t *testing.T) {
	idx := newIndex(t, domain.MetricL2)
	require.NoError(t, idx.Build(context.Background(), randomEntries(50, 8, 12)))
	query := randomEntries(1, 8, 13)[0].Embedding

	done := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				hits, err := idx.Search(context.Background(), query, 5)
				assert.NoError(t, err)
				assert.Len(t, hits, 5)
				for i := 1; i < len(hits); i++ {
					assert.LessOrEqual(t, hits[i-1].Score, hits[i].Score)
				}
			}
		}()
	}

	for b := 0; b < 10; b++ {
		batch := randomEntries(15, 8, int64(200+b))
		for i := range batch {
			batch[i].Chunk.ID = fmt.Sprintf("batch-%d-%d", b, i)
		}
		require.NoError(t, idx.Add(context.Background(), batch))
	}
	close(done)
	wg.Wait()

	assert.Equal(t, 200, idx.Len())
	for b := 0; b < 10; b++ {
		_, ok := idx.Chunk(fmt.Sprintf("batch-%d-0", b))
		assert.True(t, ok)
	}
}

func TestIndex_Accessors(t *testing.T) {
	idx := newIndex(t, domain.MetricInnerProduct)
	require.NoError(t, idx.Build(context.Background(), []domain.IndexEntry{entry("a", 1, 2)}))

	assert.Equal(t, domain.IndexKindHNSW, idx.Kind())
	assert.Equal(t, domain.MetricInnerProduct, idx.Metric())
	assert.Equal(t, 2, idx.Dimension())

	chunk, ok := idx.Chunk("a")
	assert.True(t, ok)
	assert.Equal(t, "a", chunk.ID)
	assert.NoError(t, idx.Close())
}
