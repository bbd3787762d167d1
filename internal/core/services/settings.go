package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkerStrategy = "chunker.strategy"
	keyChunkSize       = "chunker.chunk_size"
	keyChunkOverlap    = "chunker.overlap"

	keyEmbedProvider       = "embedding.provider"
	keyEmbedModel          = "embedding.model"
	keyEmbedBaseURL        = "embedding.base_url"
	keyEmbedAPIKey         = "embedding.api_key"
	keyEmbedDimensions     = "embedding.dimensions"
	keyEmbedMaxBatchSize   = "embedding.max_batch_size"
	keyEmbedMaxRetries     = "embedding.max_retries"
	keyEmbedInitialBackoff = "embedding.initial_backoff_ms"
	keyEmbedMaxBackoff     = "embedding.max_backoff_ms"
	keyEmbedTimeout        = "embedding.timeout_seconds"
	keyEmbedRPS            = "embedding.requests_per_second"
	keyEmbedConcurrency    = "embedding.concurrency"

	keyIndexKind           = "index.kind"
	keyIndexMetric         = "index.metric"
	keyIndexHNSWM          = "index.hnsw_m"
	keyIndexEfConstruction = "index.hnsw_ef_construction"
	keyIndexEfSearch       = "index.hnsw_ef_search"

	keyRetrieverK          = "retriever.k"
	keyRetrieverOversample = "retriever.oversample_factor"

	keyAssemblerMaxChars = "assembler.max_context_chars"

	keyLLMProvider  = "llm.provider"
	keyLLMModel     = "llm.model"
	keyLLMBaseURL   = "llm.base_url"
	keyLLMAPIKey    = "llm.api_key"
	keyLLMMaxTokens = "llm.max_tokens"

	keyStoragePath = "storage.path"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
)

// settingKinds lists every recognised key and its value type.
var settingKinds = map[string]settingKind{
	keyChunkerStrategy:     kindString,
	keyChunkSize:           kindInt,
	keyChunkOverlap:        kindInt,
	keyEmbedProvider:       kindString,
	keyEmbedModel:          kindString,
	keyEmbedBaseURL:        kindString,
	keyEmbedAPIKey:         kindString,
	keyEmbedDimensions:     kindInt,
	keyEmbedMaxBatchSize:   kindInt,
	keyEmbedMaxRetries:     kindInt,
	keyEmbedInitialBackoff: kindInt,
	keyEmbedMaxBackoff:     kindInt,
	keyEmbedTimeout:        kindInt,
	keyEmbedRPS:            kindFloat,
	keyEmbedConcurrency:    kindInt,
	keyIndexKind:           kindString,
	keyIndexMetric:         kindString,
	keyIndexHNSWM:          kindInt,
	keyIndexEfConstruction: kindInt,
	keyIndexEfSearch:       kindInt,
	keyRetrieverK:          kindInt,
	keyRetrieverOversample: kindInt,
	keyAssemblerMaxChars:   kindInt,
	keyLLMProvider:         kindString,
	keyLLMModel:            kindString,
	keyLLMBaseURL:          kindString,
	keyLLMAPIKey:           kindString,
	keyLLMMaxTokens:        kindInt,
	keyStoragePath:         kindString,
}

// lookup reads a raw config value.
type lookup func(key string) (any, bool)

// SettingsService reads and updates the configuration file.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// LoadConfig builds a validated domain.Config from store on top of the defaults.
func LoadConfig(store driven.ConfigStore) (domain.Config, error) {
	return buildConfig(store.Get)
}

// Config returns the validated configuration.
func (s *SettingsService) Config() (domain.Config, error) {
	return LoadConfig(s.configStore)
}

// List returns every setting with its effective value, sorted by key.
// API keys are masked.
func (s *SettingsService) List() ([]driving.Setting, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	values := configValues(cfg)
	out := make([]driving.Setting, 0, len(values))
	for key, val := range values {
		_, stored := s.configStore.Get(key)
		secret := key == keyEmbedAPIKey || key == keyLLMAPIKey
		if secret {
			val = maskSecret(val)
		}
		out = append(out, driving.Setting{Key: key, Value: val, Secret: secret, Default: !stored})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Set parses value for key and persists it.
// The change is rejected if the resulting configuration is invalid.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	_, err = buildConfig(func(k string) (any, bool) {
		if k == key {
			return parsed, true
		}
		return s.configStore.Get(k)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Check pings the configured providers.
func (s *SettingsService) Check(cfg domain.Config) error {
	if s.aiValidator == nil {
		return nil
	}

	var errs []error
	if err := s.aiValidator.ValidateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, fmt.Errorf("embedding provider: %w", err))
	}
	if err := s.aiValidator.ValidateLLM(&cfg.LLM); err != nil {
		errs = append(errs, fmt.Errorf("llm provider: %w", err))
	}
	return errors.Join(errs...)
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Keys returns every recognised setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildConfig(get lookup) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	r := &reader{get: get}

	cfg.Chunker.Strategy = r.str(keyChunkerStrategy, cfg.Chunker.Strategy)
	cfg.Chunker.ChunkSize = r.int(keyChunkSize, cfg.Chunker.ChunkSize)
	cfg.Chunker.Overlap = r.int(keyChunkOverlap, cfg.Chunker.Overlap)

	// A provider change without a model picks that provider's default model.
	if p := r.str(keyEmbedProvider, ""); p != "" && p != string(cfg.Embedding.Provider) {
		cfg.Embedding.Provider = domain.AIProvider(p)
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	if m := r.str(keyEmbedModel, ""); m != "" {
		cfg.Embedding.Model = m
	}
	cfg.Embedding.Dimensions = r.int(keyEmbedDimensions, domain.EmbeddingDimensions()[cfg.Embedding.Model])
	cfg.Embedding.BaseURL = r.str(keyEmbedBaseURL, "")
	cfg.Embedding.APIKey = r.str(keyEmbedAPIKey, "")
	cfg.Embedding.MaxBatchSize = r.int(keyEmbedMaxBatchSize, cfg.Embedding.MaxBatchSize)
	cfg.Embedding.MaxRetries = r.int(keyEmbedMaxRetries, cfg.Embedding.MaxRetries)
	cfg.Embedding.InitialBackoff = r.millis(keyEmbedInitialBackoff, cfg.Embedding.InitialBackoff)
	cfg.Embedding.MaxBackoff = r.millis(keyEmbedMaxBackoff, cfg.Embedding.MaxBackoff)
	cfg.Embedding.Timeout = time.Duration(r.int(keyEmbedTimeout, int(cfg.Embedding.Timeout/time.Second))) * time.Second
	cfg.Embedding.RequestsPerSecond = r.float(keyEmbedRPS, cfg.Embedding.RequestsPerSecond)
	cfg.Embedding.Concurrency = r.int(keyEmbedConcurrency, cfg.Embedding.Concurrency)

	cfg.Index.Kind = domain.IndexKind(r.str(keyIndexKind, string(cfg.Index.Kind)))
	cfg.Index.Metric = domain.Metric(r.str(keyIndexMetric, string(cfg.Index.Metric)))
	cfg.Index.HNSWM = r.int(keyIndexHNSWM, cfg.Index.HNSWM)
	cfg.Index.HNSWEfConstruction = r.int(keyIndexEfConstruction, cfg.Index.HNSWEfConstruction)
	cfg.Index.HNSWEfSearch = r.int(keyIndexEfSearch, cfg.Index.HNSWEfSearch)

	cfg.Retriever.K = r.int(keyRetrieverK, cfg.Retriever.K)
	cfg.Retriever.OversampleFactor = r.int(keyRetrieverOversample, cfg.Retriever.OversampleFactor)

	cfg.Assembler.MaxContextChars = r.int(keyAssemblerMaxChars, cfg.Assembler.MaxContextChars)

	cfg.LLM.Provider = domain.AIProvider(r.str(keyLLMProvider, ""))
	cfg.LLM.Model = r.str(keyLLMModel, domain.DefaultLLMModels()[cfg.LLM.Provider])
	cfg.LLM.BaseURL = r.str(keyLLMBaseURL, "")
	cfg.LLM.APIKey = r.str(keyLLMAPIKey, "")
	cfg.LLM.MaxTokens = r.int(keyLLMMaxTokens, 0)

	cfg.Storage.Path = r.str(keyStoragePath, "")

	if len(r.errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(r.errs...))
	}
	if cfg.LLM.Provider != "" && !cfg.LLM.Provider.IsValid() {
		return cfg, fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidConfig, cfg.LLM.Provider)
	}
	return cfg, cfg.Validate()
}

// configValues renders cfg as stored key/value strings.
func configValues(cfg domain.Config) map[string]string {
	itoa := strconv.Itoa
	return map[string]string{
		keyChunkerStrategy:     cfg.Chunker.Strategy,
		keyChunkSize:           itoa(cfg.Chunker.ChunkSize),
		keyChunkOverlap:        itoa(cfg.Chunker.Overlap),
		keyEmbedProvider:       cfg.Embedding.Provider.String(),
		keyEmbedModel:          cfg.Embedding.Model,
		keyEmbedBaseURL:        cfg.Embedding.BaseURL,
		keyEmbedAPIKey:         cfg.Embedding.APIKey,
		keyEmbedDimensions:     itoa(cfg.Embedding.Dimensions),
		keyEmbedMaxBatchSize:   itoa(cfg.Embedding.MaxBatchSize),
		keyEmbedMaxRetries:     itoa(cfg.Embedding.MaxRetries),
		keyEmbedInitialBackoff: itoa(int(cfg.Embedding.InitialBackoff / time.Millisecond)),
		keyEmbedMaxBackoff:     itoa(int(cfg.Embedding.MaxBackoff / time.Millisecond)),
		keyEmbedTimeout:        itoa(int(cfg.Embedding.Timeout / time.Second)),
		keyEmbedRPS:            strconv.FormatFloat(cfg.Embedding.RequestsPerSecond, 'g', -1, 64),
		keyEmbedConcurrency:    itoa(cfg.Embedding.Concurrency),
		keyIndexKind:           cfg.Index.Kind.String(),
		keyIndexMetric:         cfg.Index.Metric.String(),
		keyIndexHNSWM:          itoa(cfg.Index.HNSWM),
		keyIndexEfConstruction: itoa(cfg.Index.HNSWEfConstruction),
		keyIndexEfSearch:       itoa(cfg.Index.HNSWEfSearch),
		keyRetrieverK:          itoa(cfg.Retriever.K),
		keyRetrieverOversample: itoa(cfg.Retriever.OversampleFactor),
		keyAssemblerMaxChars:   itoa(cfg.Assembler.MaxContextChars),
		keyLLMProvider:         cfg.LLM.Provider.String(),
		keyLLMModel:            cfg.LLM.Model,
		keyLLMBaseURL:          cfg.LLM.BaseURL,
		keyLLMAPIKey:           cfg.LLM.APIKey,
		keyLLMMaxTokens:        itoa(cfg.LLM.MaxTokens),
		keyStoragePath:         cfg.Storage.Path,
	}
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", value)
		}
		return f, nil
	default:
		return value, nil
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// reader converts raw TOML values and collects type errors.
type reader struct {
	get  lookup
	errs []error
}

func (r *reader) str(key, def string) string {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.errs = append(r.errs, fmt.Errorf("%s: expected a string, got %T", key, v))
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func (r *reader) int(key string, def int) int {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	r.errs = append(r.errs, fmt.Errorf("%s: expected an integer, got %v", key, v))
	return def
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	r.errs = append(r.errs, fmt.Errorf("%s: expected a number, got %v", key, v))
	return def
}

func (r *reader) millis(key string, def time.Duration) time.Duration {
	return time.Duration(r.int(key, int(def/time.Millisecond))) * time.Millisecond
}
