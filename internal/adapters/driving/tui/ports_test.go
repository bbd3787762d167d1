package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.SearchResult, error)
}

func (m *mockRetriever) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.SearchResult, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, opts)
	}
	return nil, nil
}

// mockAnswer implements driving.AnswerService for testing.
type mockAnswer struct {
	prompt string
	err    error
}

func (m *mockAnswer) Ask(context.Context, string, domain.RetrieveOptions) (*driving.Answer, error) {
	return &driving.Answer{Prompt: m.prompt}, m.err
}

func (m *mockAnswer) Context(
	context.Context, string, domain.RetrieveOptions,
) (string, []domain.SearchResult, error) {
	return m.prompt, nil, m.err
}

func (m *mockAnswer) ContextWithin(
	ctx context.Context, query string, opts domain.RetrieveOptions, _ int,
) (string, []domain.SearchResult, error) {
	return m.Context(ctx, query, opts)
}

// mockIndexer implements driving.Indexer for testing.
type mockIndexer struct {
	stats domain.IndexStats
}

func (m *mockIndexer) Build(context.Context, []domain.Document) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *mockIndexer) Add(context.Context, []domain.Document) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *mockIndexer) Load(context.Context) error { return nil }

func (m *mockIndexer) Contains(string) bool { return false }

func (m *mockIndexer) Stats() domain.IndexStats { return m.stats }

func TestNewPorts(t *testing.T) {
	r := &mockRetriever{}
	a := &mockAnswer{}
	i := &mockIndexer{}

	ports := NewPorts(r, a, i)

	assert.Equal(t, r, ports.Retriever)
	assert.Equal(t, a, ports.Answer)
	assert.Equal(t, i, ports.Indexer)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "retriever only", ports: &Ports{Retriever: &mockRetriever{}}},
		{name: "all ports", ports: NewPorts(&mockRetriever{}, &mockAnswer{}, &mockIndexer{})},
		{name: "missing retriever", ports: &Ports{Answer: &mockAnswer{}}, wantErr: ErrMissingRetriever},
		{name: "nil ports", ports: nil, wantErr: ErrInvalidPorts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
