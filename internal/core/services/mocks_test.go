package services

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// hashVector derives a deterministic pseudo-random vector from text.
func hashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(sum[i%len(sum)]) - 127.5
	}
	return v
}

// mockEmbedder implements driven.EmbeddingService for testing.
// Without embedFn it returns hashVector for every text.
type mockEmbedder struct {
	mu      sync.Mutex
	dim     int
	model   string
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	pingErr error
	batches [][]string
	closed  bool
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim, model: "mock-embed"}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	fn := m.embedFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, m.dim)
	}
	return out, nil
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockEmbedder) Dimensions() int { return m.dim }
func (m *mockEmbedder) ModelName() string { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error {
	m.closed = true
	return nil
}

// mockMetrics implements driven.Metrics for testing.
type mockMetrics struct {
	mu       sync.Mutex
	outcomes []string
	searches []string
	entries  int
}

func (m *mockMetrics) ObserveEmbedding(outcome string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) ObserveSearch(kind string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, kind)
}

func (m *mockMetrics) SetIndexEntries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = n
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response string
	err      error
	prompt   string
	opts     driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompt = prompt
	m.opts = opts
	return m.response, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	results []domain.SearchResult
	err     error
	opts    domain.RetrieveOptions
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, opts domain.RetrieveOptions) ([]domain.SearchResult, error) {
	m.opts = opts
	return m.results, m.err
}

// mockIndexer implements driving.Indexer for testing.
type mockIndexer struct {
	mu        sync.Mutex
	built     [][]domain.Document
	added     [][]domain.Document
	documents map[string]bool
	entries   int
	buildErr  error
	addErr    error
}

func newMockIndexer() *mockIndexer {
	return &mockIndexer{documents: make(map[string]bool)}
}

func (m *mockIndexer) Build(_ context.Context, docs []domain.Document) (driving.IndexReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = append(m.built, append([]domain.Document(nil), docs...))
	if m.buildErr != nil {
		return driving.IndexReport{}, m.buildErr
	}
	m.documents = make(map[string]bool)
	for _, d := range docs {
		m.documents[d.ID] = true
	}
	m.entries = len(docs)
	return driving.IndexReport{Documents: len(docs), Chunks: len(docs), Entries: m.entries}, nil
}

func (m *mockIndexer) Add(_ context.Context, docs []domain.Document) (driving.IndexReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, append([]domain.Document(nil), docs...))
	if m.addErr != nil {
		return driving.IndexReport{}, m.addErr
	}
	for _, d := range docs {
		m.documents[d.ID] = true
	}
	m.entries += len(docs)
	return driving.IndexReport{Documents: len(docs), Chunks: len(docs), Entries: m.entries}, nil
}

func (m *mockIndexer) Load(context.Context) error { return nil }

func (m *mockIndexer) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[id]
}

func (m *mockIndexer) Stats() domain.IndexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.IndexStats{Entries: m.entries, Documents: len(m.documents)}
}

func (m *mockIndexer) counts() (builds, adds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.built), len(m.added)
}

// mockConnector implements driven.Connector for testing.
type mockConnector struct {
	docs        []domain.RawDocument
	syncErr     error
	validateErr error
	changes     chan domain.RawDocumentChange
	watchErr    error
	closed      bool
}

func (m *mockConnector) Type() string { return "mock" }

func (m *mockConnector) Validate(context.Context) error { return m.validateErr }

func (m *mockConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if m.syncErr != nil {
			errs <- m.syncErr
			return
		}
		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
	}()

	return docs, errs
}

func (m *mockConnector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	out := make(chan domain.RawDocumentChange)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-m.changes:
				if !ok {
					return
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

// mockRegistry implements driven.NormaliserRegistry for testing.
// Documents with MIME type "application/octet-stream" are unsupported.
type mockRegistry struct {
	failURIs map[string]bool
}

func (m *mockRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw.MIMEType == "application/octet-stream" {
		return nil, domain.ErrUnsupportedType
	}
	if m.failURIs[raw.URI] {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Document{
		ID:       raw.DocumentID(),
		Text:     string(raw.Content),
		Metadata: domain.CopyMetadata(raw.Metadata),
	}, nil
}

func (m *mockRegistry) Register(driven.Normaliser) {}

func (m *mockRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }
