package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates bad construction parameters.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnsupportedType indicates an unknown provider, metric or index kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Embedding Errors.

	// ErrEmbeddingUnavailable indicates the embedding provider failed,
	// either permanently or after retries were exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingTimeout indicates the caller's deadline expired
	// while waiting on the embedding provider.
	ErrEmbeddingTimeout = errors.New("embedding timeout")

	// ErrEmbeddingDimensionMismatch indicates the provider returned a vector
	// of unexpected length. This signals a provider or model change.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a transient provider failure
	// (5xx response or network error).
	ErrProviderUnavailable = errors.New("provider unavailable")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector whose length differs
	// from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyIndex indicates an index build was requested without entries
	// while documents were required.
	ErrEmptyIndex = errors.New("empty index")
)
