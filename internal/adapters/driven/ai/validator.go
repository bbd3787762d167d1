package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// probeText is embedded once to confirm the provider's vector size.
const probeText = "ragcore dimension probe"

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct {
	// probe embeds a test text after a successful ping.
	probe bool
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithDimensionProbe makes ValidateEmbedding embed a short text and
// compare the vector length with the configured dimension.
func WithDimensionProbe() ValidatorOption {
	return func(v *ConfigValidator) {
		v.probe = true
	}
}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding pings the embedding provider and, with the dimension
// probe enabled, checks the returned vector size.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if !v.probe {
		return ValidateEmbeddingConfig(config)
	}
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := pingService(context.Background(), svc); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}

	want := config.Dimensions
	if want == 0 {
		want = svc.Dimensions()
	}
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: model %q returned %d dimensions, configured %d",
			domain.ErrEmbeddingDimensionMismatch, svc.ModelName(), len(vec), want)
	}
	return nil
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
