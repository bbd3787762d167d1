// Package domain defines the core business entities for ragcore.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Source text with string metadata
//   - Chunk: A bounded span of a document, the unit of embedding and retrieval
//   - IndexEntry: A chunk paired with its embedding
//   - SearchResult: A retrieved chunk with its score
//   - Config: The settings value object passed to every constructor
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
