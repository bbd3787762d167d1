package services

import (
	"time"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// nopMetrics discards every observation.
type nopMetrics struct{}

func (nopMetrics) ObserveEmbedding(string, int, time.Duration) {}
func (nopMetrics) ObserveSearch(string, int, time.Duration)    {}
func (nopMetrics) SetIndexEntries(int)                         {}

func metricsOrNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
