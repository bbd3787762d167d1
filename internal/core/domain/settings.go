package domain

import (
	"errors"
	"fmt"
	"time"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI or any OpenAI-compatible API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkerSettings configures document chunking.
type ChunkerSettings struct {
	// Strategy names the registered chunker ("chunker" or "words").
	Strategy string

	// ChunkSize is the window size in characters (or words).
	ChunkSize int

	// Overlap is shared between consecutive windows. Must be below ChunkSize.
	Overlap int
}

// Validate checks the chunk window is usable.
func (c ChunkerSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, c.ChunkSize, c.Overlap)
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI-compatible providers).
	APIKey string

	// Dimensions is the expected vector length D. Zero uses the model default.
	Dimensions int

	// MaxBatchSize caps the texts sent in one provider call.
	MaxBatchSize int

	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. It doubles per retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// Timeout bounds a single provider attempt.
	Timeout time.Duration

	// RequestsPerSecond limits provider calls. Zero disables the limit.
	RequestsPerSecond float64

	// Concurrency is the number of sub-batches embedded in parallel during a build.
	Concurrency int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Validate checks the batching and retry parameters.
func (e EmbeddingSettings) Validate() error {
	var errs []error
	if e.Provider != "" && !e.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", e.Provider))
	}
	if e.Provider == AIProviderAnthropic {
		errs = append(errs, errors.New("anthropic does not provide embeddings"))
	}
	if e.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must not be negative, got %d", e.Dimensions))
	}
	if e.MaxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.max_batch_size must be positive, got %d", e.MaxBatchSize))
	}
	if e.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("embedding.max_retries must not be negative, got %d", e.MaxRetries))
	}
	if e.InitialBackoff < 0 || e.MaxBackoff < e.InitialBackoff {
		errs = append(errs, errors.New("embedding backoff must satisfy 0 <= initial <= max"))
	}
	if e.Timeout <= 0 {
		errs = append(errs, errors.New("embedding.timeout_seconds must be positive"))
	}
	if e.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("embedding.requests_per_second must not be negative"))
	}
	if e.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("embedding.concurrency must be positive, got %d", e.Concurrency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// Kind selects exact or approximate search.
	Kind IndexKind

	// Metric is the similarity function.
	Metric Metric

	// HNSWM is the number of neighbours per node on upper layers.
	HNSWM int

	// HNSWEfConstruction is the candidate list size while inserting.
	HNSWEfConstruction int

	// HNSWEfSearch is the candidate list size while searching.
	HNSWEfSearch int
}

// Validate checks the index kind, metric and graph parameters.
func (i IndexSettings) Validate() error {
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w: unknown index kind %q", ErrInvalidConfig, i.Kind)
	}
	if !i.Metric.IsValid() {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, i.Metric)
	}
	if i.Kind == IndexKindHNSW && (i.HNSWM < 2 || i.HNSWEfConstruction <= 0 || i.HNSWEfSearch <= 0) {
		return fmt.Errorf("%w: hnsw requires m >= 2 and positive ef values", ErrInvalidConfig)
	}
	return nil
}

// RetrieverSettings configures retrieval.
type RetrieverSettings struct {
	// K is the default number of results.
	K int

	// OversampleFactor multiplies K when filters are present.
	OversampleFactor int
}

// Validate checks K and the oversample factor.
func (r RetrieverSettings) Validate() error {
	if r.K <= 0 {
		return fmt.Errorf("%w: retriever.k must be positive, got %d", ErrInvalidConfig, r.K)
	}
	if r.OversampleFactor < 1 {
		return fmt.Errorf("%w: retriever.oversample_factor must be at least 1, got %d", ErrInvalidConfig, r.OversampleFactor)
	}
	return nil
}

// AssemblerSettings configures context assembly.
type AssemblerSettings struct {
	// MaxContextChars bounds the assembled payload.
	MaxContextChars int
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens limits the generated answer.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings configures index persistence.
type StorageSettings struct {
	// Path is the data directory. Empty uses ~/.ragcore/data.
	Path string
}

// Config holds every setting consumed at construction time.
// It is built once at startup and passed into constructors.
type Config struct {
	Chunker   ChunkerSettings
	Embedding EmbeddingSettings
	Index     IndexSettings
	Retriever RetrieverSettings
	Assembler AssemblerSettings
	LLM       LLMSettings
	Storage   StorageSettings
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	errs := []error{
		c.Chunker.Validate(),
		c.Embedding.Validate(),
		c.Index.Validate(),
		c.Retriever.Validate(),
	}
	if c.Assembler.MaxContextChars <= 0 {
		errs = append(errs, fmt.Errorf("%w: assembler.max_context_chars must be positive", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// DefaultConfig returns settings with sensible defaults.
// The LLM is left unconfigured; answer generation stays disabled until set.
func DefaultConfig() Config {
	return Config{
		Chunker: ChunkerSettings{
			Strategy:  "chunker",
			ChunkSize: 500,
			Overlap:   50,
		},
		Embedding: EmbeddingSettings{
			Provider:       AIProviderOpenAI,
			Model:          "text-embedding-3-small",
			Dimensions:     1536,
			MaxBatchSize:   64,
			MaxRetries:     3,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Timeout:        10 * time.Second,
			Concurrency:    4,
		},
		Index: IndexSettings{
			Kind:               IndexKindExact,
			Metric:             MetricCosine,
			HNSWM:              16,
			HNSWEfConstruction: 200,
			HNSWEfSearch:       64,
		},
		Retriever: RetrieverSettings{
			K:                3,
			OversampleFactor: 3,
		},
		Assembler: AssemblerSettings{
			MaxContextChars: 4000,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
