package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieved chunks", func(t *testing.T) {
		retriever := &mockRetriever{results: sampleResults()}
		ports := validPorts()
		ports.Retriever = retriever
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "cats", K: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		require.Len(t, output.Results, 2)
		assert.Equal(t, "chunk-1", output.Results[0].ChunkID)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "notes/cats.md", output.Results[0].Source)
		assert.Equal(t, 120, output.Results[0].Offset)
		assert.Equal(t, 0.93, output.Results[0].Score)
		assert.Equal(t, "en", output.Results[0].Metadata["lang"])
		assert.Equal(t, "doc-2", output.Results[1].Source)
		assert.Equal(t, "cats", retriever.query)
		assert.Equal(t, 2, retriever.opts.K)
	})

	t.Run("parses filters", func(t *testing.T) {
		retriever := &mockRetriever{}
		ports := validPorts()
		ports.Retriever = retriever
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{
			Query:   "cats",
			Filters: []string{"lang=en", "year>=2020"},
		})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		require.Len(t, retriever.opts.Filters, 2)
		assert.Equal(t, "lang", retriever.opts.Filters[0].Field)
		assert.Equal(t, "year", retriever.opts.Filters[1].Field)
	})

	t.Run("invalid filter", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "cats", Filters: []string{"nonsense"}})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on retrieve failure", func(t *testing.T) {
		ports := validPorts()
		ports.Retriever = &mockRetriever{err: errors.New("retrieve failed")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "cats"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieve failed")
	})
}

func TestServer_handleAssembleContext(t *testing.T) {
	ctx := context.Background()

	t.Run("returns prompt and sources", func(t *testing.T) {
		answer := &mockAnswerService{prompt: "Given the following context", results: sampleResults()}
		ports := validPorts()
		ports.Answer = answer
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAssembleContext(ctx, nil, ContextInput{
			Query:           "cats",
			K:               4,
			MaxContextChars: 800,
		})

		require.NoError(t, err)
		assert.Equal(t, "Given the following context", output.Prompt)
		assert.Len(t, output.Sources, 2)
		assert.Equal(t, 4, answer.opts.K)
		assert.Equal(t, 800, answer.maxChars)
	})

	t.Run("negative budget", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		_, _, err = server.handleAssembleContext(ctx, nil, ContextInput{Query: "cats", MaxContextChars: -1})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates errors", func(t *testing.T) {
		ports := validPorts()
		ports.Answer = &mockAnswerService{err: domain.ErrEmbeddingUnavailable}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAssembleContext(ctx, nil, ContextInput{Query: "cats"})

		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_handleIndexStats(t *testing.T) {
	ports := validPorts()
	ports.Indexer = &mockIndexer{stats: domain.IndexStats{
		Kind:      domain.IndexKindHNSW,
		Metric:    domain.MetricCosine,
		Dimension: 768,
		Entries:   42,
		Documents: 5,
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleIndexStats(context.Background(), nil, StatsInput{})

	require.NoError(t, err)
	assert.Equal(t, StatsOutput{
		Kind:      "hnsw",
		Metric:    "cosine",
		Dimension: 768,
		Entries:   42,
		Documents: 5,
	}, output)
}
