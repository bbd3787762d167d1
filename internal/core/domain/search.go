package domain

// SearchResult represents a single retrieved chunk.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is a similarity (cosine, inner product) or a distance (l2),
	// depending on the index metric.
	Score float64
}

// RetrieveOptions configures a retrieval.
type RetrieveOptions struct {
	// K is the maximum number of results. Must be positive.
	K int

	// Filters are metadata predicates combined with AND.
	Filters []Filter
}

// IndexStats describes the state of a vector index.
type IndexStats struct {
	Kind      IndexKind
	Metric    Metric
	Dimension int
	Entries   int
	Documents int
}

// IndexSnapshot is the persisted form of a vector index.
// Entries are kept in insertion order so that a rebuilt index
// breaks ties the same way as the original.
type IndexSnapshot struct {
	Metric    Metric
	Dimension int
	Model     string
	Entries   []IndexEntry
}
