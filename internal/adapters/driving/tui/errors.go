package tui

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("tui: retriever is required")

// ErrInvalidPorts is returned when no ports are supplied.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
