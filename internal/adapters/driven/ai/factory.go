// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when generation is unavailable.
	Warnings         []string          // Non-fatal issues that disabled the LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates the providers described by cfg.
//
// The embedding provider is required: a missing or unreachable one is an
// error. The LLM is optional: when it is unset or fails its ping, Init
// records a warning and leaves LLMService nil. Pinging is skipped when
// ping is false.
func Init(ctx context.Context, cfg domain.Config, ping bool) (*InitResult, error) {
	if !cfg.Embedding.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured (set embedding.api_key or RAGCORE_EMBEDDING_API_KEY)",
			domain.ErrEmbeddingUnavailable, cfg.Embedding.Provider)
	}

	embedding, err := CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if ping {
		if err := pingService(ctx, embedding); err != nil {
			embedding.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w). Run 'ragcore settings check' to diagnose",
				domain.ErrEmbeddingUnavailable, err)
		}
	}

	result := &InitResult{EmbeddingService: embedding}
	if cfg.LLM.Provider == "" {
		return result, nil
	}

	llm, err := CreateLLMService(&cfg.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm disabled: %v", err))
	case llm == nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("llm disabled: provider %q is not configured", cfg.LLM.Provider))
	case ping:
		if err := pingService(ctx, llm); err != nil {
			llm.Close()
			result.Warnings = append(result.Warnings, fmt.Sprintf("llm disabled: service unreachable (%v)", err))
			break
		}
		result.LLMService = llm
	default:
		result.LLMService = llm
	}
	return result, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	return pingService(context.Background(), svc)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	return pingService(context.Background(), svc)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingService(ctx context.Context, svc pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
