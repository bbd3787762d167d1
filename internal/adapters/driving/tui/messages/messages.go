// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RetrieveRequested is a command to run a retrieval.
type RetrieveRequested struct {
	Query   string
	Options domain.RetrieveOptions
}

// RetrieveCompleted carries retrieved chunks back to the model.
type RetrieveCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ContextAssembled carries the prompt built for a query.
type ContextAssembled struct {
	Query  string
	Prompt string
	Err    error
}

// ResultSelected is sent when a result is opened.
type ResultSelected struct {
	Result domain.SearchResult
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and results view.
	ViewSearch
	// ViewChunk shows one chunk or an assembled prompt.
	ViewChunk
	// ViewHelp lists keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewChunk:
		return "chunk"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
