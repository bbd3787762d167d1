package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Embedding call outcomes reported to driven.Metrics.
const (
	outcomeSuccess = "success"
	outcomeRetry   = "retry"
	outcomeFailure = "failure"
)

// errAttemptTimeout marks a single provider attempt that ran past its
// per-attempt timeout while the caller's context was still live.
var errAttemptTimeout = errors.New("embedding attempt timed out")

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder wraps a provider with batching, rate limiting, retries and
// dimension checks. It never substitutes vectors or drops texts: a call
// either returns one vector per input, in order, or an error.
type Embedder struct {
	provider driven.EmbeddingService
	settings domain.EmbeddingSettings
	dim      int
	limiter  *rate.Limiter
	metrics  driven.Metrics

	// sleep waits between retries. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEmbedder creates an embedder over provider.
// The expected dimension is settings.Dimensions, or the provider's when zero.
// The metrics parameter is optional (can be nil).
func NewEmbedder(
	provider driven.EmbeddingService,
	settings domain.EmbeddingSettings,
	metrics driven.Metrics,
) (*Embedder, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedder: %w: no embedding provider", domain.ErrInvalidConfig)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	dim := settings.Dimensions
	if dim == 0 {
		dim = provider.Dimensions()
	}
	if dim <= 0 {
		return nil, fmt.Errorf("embedder: %w: unknown dimension for model %q",
			domain.ErrInvalidConfig, provider.ModelName())
	}

	var limiter *rate.Limiter
	if settings.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1)
	}

	return &Embedder{
		provider: provider,
		settings: settings,
		dim:      dim,
		limiter:  limiter,
		metrics:  metricsOrNop(metrics),
		sleep:    sleepContext,
	}, nil
}

// Embed generates the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in sub-batches of at most MaxBatchSize.
// The context is checked before every sub-batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.settings.MaxBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}

		end := min(start+e.settings.MaxBatchSize, len(texts))
		vecs, err := e.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// embedWithRetry sends one sub-batch, retrying transient failures.
func (e *Embedder) embedWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var last error
	for attempt := 0; attempt <= e.settings.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := e.backoff(attempt - 1)
			logger.Warn("Embedding attempt %d/%d failed: %v (retrying in %s)",
				attempt, e.settings.MaxRetries+1, last, wait)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, contextError(err)
			}
		}

		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		started := time.Now()
		vecs, err := e.attempt(ctx, batch)
		elapsed := time.Since(started)

		if err == nil {
			if err := e.check(batch, vecs); err != nil {
				e.metrics.ObserveEmbedding(outcomeFailure, len(batch), elapsed)
				return nil, err
			}
			e.metrics.ObserveEmbedding(outcomeSuccess, len(batch), elapsed)
			return vecs, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			e.metrics.ObserveEmbedding(outcomeFailure, len(batch), elapsed)
			return nil, contextError(ctxErr)
		}
		if !isTransient(err) {
			e.metrics.ObserveEmbedding(outcomeFailure, len(batch), elapsed)
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}

		last = err
		if attempt < e.settings.MaxRetries {
			e.metrics.ObserveEmbedding(outcomeRetry, len(batch), elapsed)
		} else {
			e.metrics.ObserveEmbedding(outcomeFailure, len(batch), elapsed)
		}
	}

	return nil, fmt.Errorf("%w: giving up after %d attempts: %w",
		domain.ErrEmbeddingUnavailable, e.settings.MaxRetries+1, last)
}

// wait blocks on the rate limiter, if any.
func (e *Embedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return contextError(ctxErr)
		}
		// The limiter refuses to wait past the deadline.
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingTimeout, err)
	}
	return nil
}

// attempt runs one provider call bounded by the per-attempt timeout.
// The provider runs in its own goroutine so a call that ignores its
// context cannot block the caller past the timeout.
func (e *Embedder) attempt(ctx context.Context, batch []string) ([][]float32, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()

	type result struct {
		vecs [][]float32
		err  error
	}
	done := make(chan result, 1)
	go func() {
		vecs, err := e.provider.EmbedBatch(attemptCtx, batch)
		done <- result{vecs: vecs, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", errAttemptTimeout, e.settings.Timeout, r.err)
		}
		return r.vecs, r.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w after %s", errAttemptTimeout, e.settings.Timeout)
	}
}

// check verifies the provider returned one vector of dimension D per text.
func (e *Embedder) check(batch []string, vecs [][]float32) error {
	if len(vecs) != len(batch) {
		return fmt.Errorf("%w: provider returned %d vectors for %d texts",
			domain.ErrEmbeddingUnavailable, len(vecs), len(batch))
	}
	for i, v := range vecs {
		if len(v) != e.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbeddingDimensionMismatch, i, len(v), e.dim)
		}
	}
	return nil
}

// backoff returns initial * 2^retry, capped at MaxBackoff.
func (e *Embedder) backoff(retry int) time.Duration {
	d := e.settings.InitialBackoff
	for i := 0; i < retry && d < e.settings.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, e.settings.MaxBackoff)
}

// Dimensions returns the expected vector length D.
func (e *Embedder) Dimensions() int {
	return e.dim
}

// ModelName returns the provider's model name.
func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// Ping checks the provider under the per-attempt timeout.
func (e *Embedder) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()
	return e.provider.Ping(ctx)
}

// Close releases the provider.
func (e *Embedder) Close() error {
	return e.provider.Close()
}

// isTransient reports whether a provider error is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, errAttemptTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// contextError maps an expired caller deadline to ErrEmbeddingTimeout.
// Cancellation is returned unchanged.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingTimeout, err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
