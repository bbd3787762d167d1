// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Search runs the query in the input.
	Search key.Binding

	// Up navigates up in a list or scrolls up.
	Up key.Binding

	// Down navigates down in a list or scrolls down.
	Down key.Binding

	// Select opens the selected chunk.
	Select key.Binding

	// NewSearch focuses the input from the results.
	NewSearch key.Binding

	// Context assembles the prompt for the current query.
	Context key.Binding

	// MoreResults and FewerResults adjust k.
	MoreResults  key.Binding
	FewerResults key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "retrieve"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		NewSearch: key.NewBinding(
			key.WithKeys("n", "/"),
			key.WithHelp("n", "new query"),
		),
		Context: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "context"),
		),
		MoreResults: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more"),
		),
		FewerResults: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "fewer"),
		),
	}
}

// ShortHelp returns the keybindings shown while typing a query.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Back}
}

// ResultsHelp returns keybindings for the results view.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Select, k.Context, k.NewSearch, k.MoreResults, k.FewerResults, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Search, k.NewSearch, k.Context},
		{k.MoreResults, k.FewerResults},
		{k.Back, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
