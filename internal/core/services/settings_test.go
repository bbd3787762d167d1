package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embeddingErr }
func (m *mockAIValidator) ValidateLLM(*domain.LLMSettings) error { return m.llmErr }

func findSetting(t *testing.T, settings []driving.Setting, key string) driving.Setting {
	t.Helper()
	for _, s := range settings {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("setting %s not listed", key)
	return driving.Setting{}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(memory.NewConfigStore(nil))

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoadConfig_StoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"chunker.chunk_size":            int64(200),
		"chunker.overlap":               int64(20),
		"embedding.max_retries":         int64(5),
		"embedding.initial_backoff_ms":  int64(50),
		"embedding.timeout_seconds":     int64(3),
		"embedding.requests_per_second": 2.5,
		"index.kind":                    "hnsw",
		"index.metric":                  "l2",
		"retriever.k":                   int64(7),
		"assembler.max_context_chars":   int64(1000),
		"llm.provider":                  "ollama",
		"storage.path":                  "/data",
	})

	cfg, err := LoadConfig(store)

	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Chunker.ChunkSize)
	assert.Equal(t, 20, cfg.Chunker.Overlap)
	assert.Equal(t, 5, cfg.Embedding.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Embedding.InitialBackoff)
	assert.Equal(t, 3*time.Second, cfg.Embedding.Timeout)
	assert.InDelta(t, 2.5, cfg.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, domain.IndexKindHNSW, cfg.Index.Kind)
	assert.Equal(t, domain.MetricL2, cfg.Index.Metric)
	assert.Equal(t, 7, cfg.Retriever.K)
	assert.Equal(t, 1000, cfg.Assembler.MaxContextChars)
	assert.Equal(t, domain.AIProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "/data", cfg.Storage.Path)
}

func TestLoadConfig_ProviderChangePicksDefaultModel(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"embedding.provider": "ollama"})

	cfg, err := LoadConfig(store)

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"overlap not below chunk size", map[string]any{"chunker.chunk_size": int64(10), "chunker.overlap": int64(10)}},
		{"wrong type", map[string]any{"retriever.k": "many"}},
		{"zero k", map[string]any{"retriever.k": int64(0)}},
		{"unknown metric", map[string]any{"index.metric": "manhattan"}},
		{"unknown llm provider", map[string]any{"llm.provider": "skynet"}},
		{"anthropic embeddings", map[string]any{"embedding.provider": "anthropic"}},
		{"zero budget", map[string]any{"assembler.max_context_chars": int64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(memory.NewConfigStore(tt.values))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestSettingsService_Set(t *testing.T) {
	t.Run("persists parsed value", func(t *testing.T) {
		store := memory.NewConfigStore(nil)
		svc := NewSettingsService(store, nil)

		require.NoError(t, svc.Set("retriever.k", " 5 "))

		v, ok := store.Get("retriever.k")
		require.True(t, ok)
		assert.Equal(t, int64(5), v)
		cfg, err := svc.Config()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Retriever.K)
	})

	t.Run("unknown key", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore(nil), nil).Set("search.mode", "hybrid")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("malformed value", func(t *testing.T) {
		err := NewSettingsService(memory.NewConfigStore(nil), nil).Set("retriever.k", "three")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects invalid result without saving", func(t *testing.T) {
		store := memory.NewConfigStore(nil)
		svc := NewSettingsService(store, nil)

		err := svc.Set("chunker.overlap", "600")

		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		_, stored := store.Get("chunker.overlap")
		assert.False(t, stored)
	})
}

func TestSettingsService_List(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"embedding.api_key": "sk-1234567890abcdef",
		"retriever.k":       int64(4),
	})
	svc := NewSettingsService(store, nil)

	settings, err := svc.List()

	require.NoError(t, err)
	assert.Len(t, settings, len(Keys()))
	for i := 1; i < len(settings); i++ {
		assert.Less(t, settings[i-1].Key, settings[i].Key)
	}

	key := findSetting(t, settings, "embedding.api_key")
	assert.True(t, key.Secret)
	assert.Equal(t, "sk-1****cdef", key.Value)

	k := findSetting(t, settings, "retriever.k")
	assert.Equal(t, "4", k.Value)
	assert.False(t, k.Default)

	metric := findSetting(t, settings, "index.metric")
	assert.Equal(t, "cosine", metric.Value)
	assert.True(t, metric.Default)
}

func TestSettingsService_Check(t *testing.T) {
	cfg := domain.DefaultConfig()

	t.Run("no validator", func(t *testing.T) {
		assert.NoError(t, NewSettingsService(memory.NewConfigStore(nil), nil).Check(cfg))
	})

	t.Run("joins provider failures", func(t *testing.T) {
		validator := &mockAIValidator{
			embeddingErr: domain.ErrProviderUnavailable,
			llmErr:       errors.New("bad key"),
		}
		svc := NewSettingsService(memory.NewConfigStore(nil), validator)

		err := svc.Check(cfg)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
		assert.Contains(t, err.Error(), "embedding provider")
		assert.Contains(t, err.Error(), "llm provider: bad key")
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghijklmnop"))
}

func TestSettingsService_Path(t *testing.T) {
	assert.Equal(t, ":memory:", NewSettingsService(memory.NewConfigStore(nil), nil).Path())
}
