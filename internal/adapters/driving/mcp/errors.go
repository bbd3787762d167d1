// Package mcp exposes retrieval over the Model Context Protocol so that AI
// assistants can pull grounded context from the local index.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
