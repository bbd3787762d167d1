package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService chains retrieval, assembly and generation.
type AnswerService struct {
	retriever driving.Retriever
	assembler driving.ContextAssembler
	llm       driven.LLMService
	assembly  domain.AssemblerSettings
	maxTokens int
}

// NewAnswerService creates an answer service.
// The llm parameter is optional (can be nil); Ask then fails with
// domain.ErrLLMUnavailable while Context keeps working.
func NewAnswerService(
	retriever driving.Retriever,
	assembler driving.ContextAssembler,
	llm driven.LLMService,
	assembly domain.AssemblerSettings,
	maxTokens int,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		assembler: assembler,
		llm:       llm,
		assembly:  assembly,
		maxTokens: maxTokens,
	}
}

// Context retrieves and assembles the prompt for query.
func (s *AnswerService) Context(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) (string, []domain.SearchResult, error) {
	return s.ContextWithin(ctx, query, opts, 0)
}

// ContextWithin retrieves and assembles the prompt for query within
// maxContextChars, or the configured budget when it is not positive.
func (s *AnswerService) ContextWithin(
	ctx context.Context, query string, opts domain.RetrieveOptions, maxContextChars int,
) (string, []domain.SearchResult, error) {
	if maxContextChars <= 0 {
		maxContextChars = s.assembly.MaxContextChars
	}

	results, err := s.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}

	prompt, err := s.assembler.Assemble(query, results, maxContextChars)
	if err != nil {
		return "", nil, err
	}
	return prompt, results, nil
}

// Ask answers query from the retrieved context.
func (s *AnswerService) Ask(ctx context.Context, query string, opts domain.RetrieveOptions) (*driving.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt, results, err := s.Context(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	logger.Section("Answer Generation")
	logger.Debug("Model: %s, prompt: %d bytes, sources: %d", s.llm.ModelName(), len(prompt), len(results))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &driving.Answer{
		Text:    strings.TrimSpace(text),
		Prompt:  prompt,
		Sources: results,
	}, nil
}
