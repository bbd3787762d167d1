package driven

import "time"

// Metrics records pipeline instrumentation.
// This is an optional port - services fall back to a no-op when nil.
type Metrics interface {
	// ObserveEmbedding records one provider call.
	// Outcome is "success", "retry" or "failure".
	ObserveEmbedding(outcome string, texts int, elapsed time.Duration)

	// ObserveSearch records one index search.
	ObserveSearch(kind string, hits int, elapsed time.Duration)

	// SetIndexEntries records the current index size.
	SetIndexEntries(n int)
}
