// Package vecmath provides the scoring, ordering and validation shared by
// the vector index implementations.
package vecmath

import (
	"math"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Dot returns the inner product of a and b, accumulated in float64.
// The vectors must have equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Normalize returns a unit-length copy of v.
// A zero vector is returned as a zero copy.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Prepare returns the stored form of v for the metric.
// Cosine vectors are normalised so scoring reduces to a dot product.
func Prepare(metric domain.Metric, v []float32) []float32 {
	if metric == domain.MetricCosine {
		return Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// Score compares a prepared query with a prepared stored vector.
func Score(metric domain.Metric, query, stored []float32) float64 {
	switch metric {
	case domain.MetricL2:
		return math.Sqrt(SquaredL2(query, stored))
	default:
		return Dot(query, stored)
	}
}
