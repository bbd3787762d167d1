package domain

const unknownDescription = "Unknown"

// Metric is the similarity function an index scores with.
// It is fixed when the index is constructed.
type Metric string

// Available similarity metrics.
const (
	// MetricCosine scores by cosine similarity in [-1, 1].
	MetricCosine Metric = "cosine"

	// MetricInnerProduct scores by raw dot product.
	MetricInnerProduct Metric = "inner_product"

	// MetricL2 scores by Euclidean distance (lower is better).
	MetricL2 Metric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m Metric) IsValid() bool {
	switch m {
	case MetricCosine, MetricInnerProduct, MetricL2:
		return true
	default:
		return false
	}
}

// HigherIsBetter returns true when larger scores indicate closer vectors.
func (m Metric) HigherIsBetter() bool {
	return m != MetricL2
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// Description returns a human-readable description of the metric.
func (m Metric) Description() string {
	switch m {
	case MetricCosine:
		return "Cosine similarity (normalised vectors)"
	case MetricInnerProduct:
		return "Inner product"
	case MetricL2:
		return "Euclidean distance"
	default:
		return unknownDescription
	}
}

// AllMetrics returns all available metrics.
func AllMetrics() []Metric {
	return []Metric{MetricCosine, MetricInnerProduct, MetricL2}
}

// IndexKind selects the vector index implementation.
type IndexKind string

// Available index kinds.
const (
	// IndexKindExact scans every entry.
	IndexKindExact IndexKind = "exact"

	// IndexKindHNSW searches a hierarchical navigable small-world graph.
	IndexKindHNSW IndexKind = "hnsw"
)

// IsValid returns true if the index kind is recognised.
func (k IndexKind) IsValid() bool {
	return k == IndexKindExact || k == IndexKindHNSW
}

// String returns the string representation.
func (k IndexKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the index kind.
func (k IndexKind) Description() string {
	switch k {
	case IndexKindExact:
		return "Exact (brute-force scan)"
	case IndexKindHNSW:
		return "Approximate (HNSW graph)"
	default:
		return unknownDescription
	}
}
