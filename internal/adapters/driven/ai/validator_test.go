package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// embeddingServer answers Ollama tag and embedding requests with a
// vector of the given size.
func embeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		body := `{"embedding":[`
		for i := 0; i < dim; i++ {
			if i > 0 {
				body += ","
			}
			body += "0.5"
		}
		_, _ = w.Write([]byte(body + `]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_NilConfigs(t *testing.T) {
	validator := NewConfigValidator(WithDimensionProbe())
	require.NotNil(t, validator)

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateLLM(nil))
}

func TestConfigValidator_UnconfiguredProvider(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Model: "test-model"}))
	assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{Model: "test-model"}))
}

func TestConfigValidator_DimensionProbe(t *testing.T) {
	server := embeddingServer(t, 4)

	validator := NewConfigValidator(WithDimensionProbe())

	err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "custom", Dimensions: 4,
	})
	assert.NoError(t, err)

	err = validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "custom", Dimensions: 8,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimensionMismatch)
}

func TestConfigValidator_WithoutProbeOnlyPings(t *testing.T) {
	server := embeddingServer(t, 4)

	validator := NewConfigValidator()
	err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "custom", Dimensions: 8,
	})
	assert.NoError(t, err)
}
