// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Chunker: Splits documents into chunks
//   - EmbeddingService: Generates vector embeddings (OpenAI-compatible, Ollama)
//   - VectorIndex: Stores embeddings and answers nearest-neighbour queries
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IndexStore: Index persistence. Without it, the index lives for one process.
//   - LLMService: Answer generation. Without it, only retrieval is available.
//   - Metrics: Instrumentation. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
