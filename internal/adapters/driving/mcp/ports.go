package mcp

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retriever serves the retrieve tool.
	Retriever driving.Retriever

	// Answer serves the assemble_context tool.
	Answer driving.AnswerService

	// Indexer serves index_stats. Optional.
	Indexer driving.Indexer

	// Settings backs the settings resource. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
