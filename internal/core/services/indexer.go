package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// IndexService runs the build phase: chunk, embed, index, persist.
type IndexService struct {
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	store    driven.IndexStore
	metrics  driven.Metrics

	batchSize        int
	concurrency      int
	requireDocuments bool

	// mu serialises Build, Add and Load.
	mu        sync.Mutex
	documents map[string]struct{}
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithIndexStore persists every build and add.
func WithIndexStore(store driven.IndexStore) IndexOption {
	return func(s *IndexService) {
		s.store = store
	}
}

// WithIndexMetrics records index size after every change.
func WithIndexMetrics(m driven.Metrics) IndexOption {
	return func(s *IndexService) {
		s.metrics = metricsOrNop(m)
	}
}

// WithRequireDocuments makes Build fail with domain.ErrEmptyIndex when
// the corpus yields no chunks.
func WithRequireDocuments() IndexOption {
	return func(s *IndexService) {
		s.requireDocuments = true
	}
}

// NewIndexService creates an index service.
// Batch size and concurrency come from the embedding settings.
func NewIndexService(
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.EmbeddingSettings,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		metrics:     nopMetrics{},
		batchSize:   max(settings.MaxBatchSize, 1),
		concurrency: max(settings.Concurrency, 1),
		documents:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build replaces the index with the given corpus and saves a snapshot.
func (s *IndexService) Build(ctx context.Context, docs []domain.Document) (driving.IndexReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Build")
	defer logger.Timer("Index Build")()
	logger.Debug("Documents: %d, chunker: %s, model: %s", len(docs), s.chunker.Name(), s.embedder.ModelName())

	entries, report, err := s.prepare(ctx, docs)
	if err != nil {
		return report, err
	}
	if len(entries) == 0 && s.requireDocuments {
		return report, fmt.Errorf("build: %w: no indexable documents", domain.ErrEmptyIndex)
	}

	previous := s.index.Entries()
	if err := s.index.Build(ctx, entries); err != nil {
		return report, fmt.Errorf("build: %w", err)
	}

	if s.store != nil {
		if err := s.store.Save(ctx, s.snapshot(entries)); err != nil {
			s.restore(ctx, previous)
			return report, fmt.Errorf("build: save index: %w", err)
		}
	}

	s.documents = make(map[string]struct{})
	s.track(entries)
	report.Entries = s.index.Len()
	s.metrics.SetIndexEntries(report.Entries)

	logger.Info("Indexed %d documents into %d chunks (%d skipped)", report.Documents, report.Chunks, report.Skipped)
	return report, nil
}

// Add chunks and embeds docs and appends them to the index.
// Existing entries keep their positions.
func (s *IndexService) Add(ctx context.Context, docs []domain.Document) (driving.IndexReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Add")
	defer logger.Timer("Index Add")()
	logger.Debug("Documents: %d, existing entries: %d", len(docs), s.index.Len())

	entries, report, err := s.prepare(ctx, docs)
	if err != nil {
		return report, err
	}
	if len(entries) == 0 {
		report.Entries = s.index.Len()
		return report, nil
	}

	var previous []domain.IndexEntry
	if s.store != nil {
		previous = s.index.Entries()
	}
	if err := s.index.Add(ctx, entries); err != nil {
		return report, fmt.Errorf("add: %w", err)
	}

	if s.store != nil {
		err := s.store.Append(ctx, entries)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("No stored index yet, saving a full snapshot")
			err = s.store.Save(ctx, s.snapshot(s.index.Entries()))
		}
		if err != nil {
			s.restore(ctx, previous)
			return report, fmt.Errorf("add: save index: %w", err)
		}
	}

	s.track(entries)
	report.Entries = s.index.Len()
	s.metrics.SetIndexEntries(report.Entries)

	logger.Info("Added %d documents as %d chunks (%d skipped)", report.Documents, report.Chunks, report.Skipped)
	return report, nil
}

// Load restores the index from the store.
// Returns domain.ErrNotFound if nothing has been saved yet.
func (s *IndexService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return fmt.Errorf("load: %w: no index store configured", domain.ErrInvalidConfig)
	}

	logger.Section("Index Load")
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	logger.Debug("Stored index: metric=%s dimension=%d model=%q entries=%d",
		snap.Metric, snap.Dimension, snap.Model, len(snap.Entries))

	if snap.Metric != s.index.Metric() {
		return fmt.Errorf("load: %w: stored index uses metric %s, configured %s",
			domain.ErrInvalidConfig, snap.Metric, s.index.Metric())
	}
	if snap.Dimension != s.embedder.Dimensions() {
		return fmt.Errorf("load: %w: stored index has %d dimensions, provider produces %d",
			domain.ErrDimensionMismatch, snap.Dimension, s.embedder.Dimensions())
	}
	if snap.Model != "" && snap.Model != s.embedder.ModelName() {
		logger.Warn("Stored index was built with model %q, current model is %q", snap.Model, s.embedder.ModelName())
	}

	if err := s.index.Build(ctx, snap.Entries); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	s.documents = make(map[string]struct{})
	s.track(snap.Entries)
	s.metrics.SetIndexEntries(s.index.Len())
	return nil
}

// Contains reports whether documentID has chunks in the index.
func (s *IndexService) Contains(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.documents[documentID]
	return ok
}

// Stats describes the current index.
func (s *IndexService) Stats() domain.IndexStats {
	s.mu.Lock()
	documents := len(s.documents)
	s.mu.Unlock()

	dim := s.index.Dimension()
	if dim == 0 {
		dim = s.embedder.Dimensions()
	}
	return domain.IndexStats{
		Kind:      s.index.Kind(),
		Metric:    s.index.Metric(),
		Dimension: dim,
		Entries:   s.index.Len(),
		Documents: documents,
	}
}

// prepare chunks every document and embeds the chunks.
func (s *IndexService) prepare(ctx context.Context, docs []domain.Document) ([]domain.IndexEntry, driving.IndexReport, error) {
	var report driving.IndexReport
	var chunks []domain.Chunk

	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			return nil, report, fmt.Errorf("%w: document %d has no id", domain.ErrInvalidInput, i)
		}
		if strings.TrimSpace(doc.Text) == "" {
			logger.Warn("Skipping document %s: no text", doc.ID)
			report.Skipped++
			continue
		}

		docChunks, err := s.chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, report, fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		logger.Debug("Document %s: %d chunks", doc.ID, len(docChunks))

		chunks = append(chunks, docChunks...)
		report.Documents++
	}
	report.Chunks = len(chunks)

	if len(chunks) == 0 {
		return nil, report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, report, err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Chunk: chunks[i], Embedding: vecs[i]}
	}
	return entries, report, nil
}

// embedAll embeds texts in sub-batches, up to concurrency at a time.
// Results are placed by sub-batch index, so output order matches input.
func (s *IndexService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	batches := (len(texts) + s.batchSize - 1) / s.batchSize
	results := make([][][]float32, batches)

	logger.Debug("Embedding %d chunks in %d batches (concurrency %d)", len(texts), batches, s.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for b := 0; b < batches; b++ {
		start := b * s.batchSize
		end := min(start+s.batchSize, len(texts))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return contextError(err)
			}
			vecs, err := s.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed batch %d: %w", b, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed batch %d: %w: got %d vectors for %d texts",
					b, domain.ErrEmbeddingUnavailable, len(vecs), end-start)
			}
			results[b] = vecs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, vecs := range results {
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *IndexService) snapshot(entries []domain.IndexEntry) domain.IndexSnapshot {
	return domain.IndexSnapshot{
		Metric:    s.index.Metric(),
		Dimension: s.embedder.Dimensions(),
		Model:     s.embedder.ModelName(),
		Entries:   entries,
	}
}

// restore puts the index back to entries after a failed save, so memory
// and store hold the same corpus.
func (s *IndexService) restore(ctx context.Context, entries []domain.IndexEntry) {
	if err := s.index.Build(context.WithoutCancel(ctx), entries); err != nil {
		logger.Warn("Failed to restore index after save error: %v", err)
	}
}

func (s *IndexService) track(entries []domain.IndexEntry) {
	for _, e := range entries {
		s.documents[e.Chunk.DocumentID] = struct{}{}
	}
}
