package mcp

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	results []domain.SearchResult
	err     error
	query   string
	opts    domain.RetrieveOptions
}

func (m *mockRetriever) Retrieve(
	_ context.Context,
	query string,
	opts domain.RetrieveOptions,
) ([]domain.SearchResult, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	prompt   string
	results  []domain.SearchResult
	err      error
	opts     domain.RetrieveOptions
	maxChars int
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, _ domain.RetrieveOptions) (*driving.Answer, error) {
	return nil, domain.ErrLLMUnavailable
}

func (m *mockAnswerService) Context(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) (string, []domain.SearchResult, error) {
	return m.ContextWithin(ctx, query, opts, 0)
}

func (m *mockAnswerService) ContextWithin(
	_ context.Context, _ string, opts domain.RetrieveOptions, maxContextChars int,
) (string, []domain.SearchResult, error) {
	m.opts = opts
	m.maxChars = maxContextChars
	return m.prompt, m.results, m.err
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	stats domain.IndexStats
}

func (m *mockIndexer) Build(_ context.Context, _ []domain.Document) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *mockIndexer) Add(_ context.Context, _ []domain.Document) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *mockIndexer) Load(_ context.Context) error {
	return nil
}

func (m *mockIndexer) Contains(_ string) bool {
	return false
}

func (m *mockIndexer) Stats() domain.IndexStats {
	return m.stats
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings []driving.Setting
	err      error
}

func (m *mockSettingsService) Config() (domain.Config, error) {
	return domain.DefaultConfig(), m.err
}

func (m *mockSettingsService) List() ([]driving.Setting, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Set(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) Check(_ domain.Config) error {
	return m.err
}

func (m *mockSettingsService) Path() string {
	return ":memory:"
}

func validPorts() *Ports {
	return &Ports{
		Retriever: &mockRetriever{},
		Answer:    &mockAnswerService{},
	}
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Chunk: domain.Chunk{
				ID:         "chunk-1",
				DocumentID: "doc-1",
				Text:       "Cats sleep most of the day.",
				Offset:     120,
				Metadata:   map[string]string{"source": "notes/cats.md", "lang": "en"},
			},
			Score: 0.93,
		},
		{
			Chunk: domain.Chunk{
				ID:         "chunk-2",
				DocumentID: "doc-2",
				Text:       "Dogs need walks.",
			},
			Score: 0.71,
		},
	}
}
