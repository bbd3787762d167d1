// Package tui provides an interactive terminal user interface for ragcore.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Retriever runs queries. Required.
	Retriever driving.Retriever

	// Answer assembles prompts. Optional; without it the context key is disabled.
	Answer driving.AnswerService

	// Indexer reports index statistics. Optional.
	Indexer driving.Indexer
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(retriever driving.Retriever, answer driving.AnswerService, indexer driving.Indexer) *Ports {
	return &Ports{
		Retriever: retriever,
		Answer:    answer,
		Indexer:   indexer,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
