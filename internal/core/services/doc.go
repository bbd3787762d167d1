// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The build phase runs through IndexService (chunk, embed, index, persist)
// and SyncOrchestrator (connectors to normalisers to the indexer). The query
// phase runs through RetrieverService, Assembler and AnswerService.
package services
