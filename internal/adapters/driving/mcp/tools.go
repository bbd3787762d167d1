package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query   string   `json:"query" jsonschema:"the question or text to find related passages for"`
	K       int      `json:"k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
	Filters []string `json:"filters,omitempty" jsonschema:"metadata filters such as lang=en or year>=2020"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput represents a single retrieved chunk.
type ResultOutput struct {
	ChunkID    string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Offset     int               `json:"offset"`
	Score      float64           `json:"score"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ContextInput is the input schema for the assemble_context tool.
type ContextInput struct {
	Query           string `json:"query" jsonschema:"the question the context should answer"`
	K               int    `json:"k,omitempty" jsonschema:"maximum number of passages to consider"`
	MaxContextChars int    `json:"max_context_chars,omitempty" jsonschema:"character budget for the prompt (default from settings)"`
}

// ContextOutput is the output schema for the assemble_context tool.
type ContextOutput struct {
	Prompt  string         `json:"prompt"`
	Sources []ResultOutput `json:"sources"`
}

// StatsInput is the (empty) input schema for the index_stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the index_stats tool.
type StatsOutput struct {
	Kind      string `json:"kind"`
	Metric    string `json:"metric"`
	Dimension int    `json:"dimension"`
	Entries   int    `json:"entries"`
	Documents int    `json:"documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the indexed passages most similar to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assemble_context",
		Description: "Build a bounded prompt with the passages most relevant to a question",
	}, s.handleAssembleContext)

	if s.ports.Indexer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_stats",
			Description: "Describe the vector index: kind, metric, dimension and size",
		}, s.handleIndexStats)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	filters, err := parseFilters(input.Filters)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	results, err := s.ports.Retriever.Retrieve(ctx, input.Query, domain.RetrieveOptions{
		K:       input.K,
		Filters: filters,
	})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}, nil
}

// handleAssembleContext handles the assemble_context tool invocation.
func (s *Server) handleAssembleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	if input.MaxContextChars < 0 {
		return nil, ContextOutput{}, fmt.Errorf("%w: max_context_chars must not be negative", domain.ErrInvalidInput)
	}

	prompt, results, err := s.ports.Answer.ContextWithin(ctx, input.Query,
		domain.RetrieveOptions{K: input.K}, input.MaxContextChars)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	return nil, ContextOutput{
		Prompt:  prompt,
		Sources: toResultOutputs(results),
	}, nil
}

// handleIndexStats handles the index_stats tool invocation.
func (s *Server) handleIndexStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	return nil, toStatsOutput(s.ports.Indexer.Stats()), nil
}

func parseFilters(exprs []string) ([]domain.Filter, error) {
	filters := make([]domain.Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func toResultOutputs(results []domain.SearchResult) []ResultOutput {
	out := make([]ResultOutput, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = ResultOutput{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Source:     c.Source(),
			Offset:     c.Offset,
			Score:      results[i].Score,
			Text:       c.Text,
			Metadata:   c.Metadata,
		}
	}
	return out
}

func toStatsOutput(stats domain.IndexStats) StatsOutput {
	return StatsOutput{
		Kind:      string(stats.Kind),
		Metric:    string(stats.Metric),
		Dimension: stats.Dimension,
		Entries:   stats.Entries,
		Documents: stats.Documents,
	}
}
