// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

// Status bar states.
const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateAssembling State = "assembling"
	StateError      State = "error"
	StateResults    State = "results"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	k           int
	index       string
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	padding := s.width - leftLen - rightLen
	if padding < 1 {
		padding = 1
	}

	bar := s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)

	return bar
}

// renderLeft renders the left side of the status bar.
func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateRetrieving:
		left = s.styles.Muted.Render("Retrieving...")
	case StateAssembling:
		left = s.styles.Muted.Render("Assembling context...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		left = s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))
	default:
		left = s.styles.Muted.Render("Ready")
	}

	if s.message != "" {
		left += s.styles.Muted.Render(" · " + s.message)
	}
	if s.k > 0 {
		left += s.styles.Muted.Render(fmt.Sprintf(" · k=%d", s.k))
	}
	if s.index != "" {
		left += s.styles.Muted.Render(" · " + s.index)
	}
	return left
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding

	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hint := fmt.Sprintf("%s: %s", h.Key, h.Desc)
		hints = append(hints, hint)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResultCount sets the result count.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetK sets the result count shown as k.
func (s *Bar) SetK(k int) {
	s.k = k
}

// K returns the displayed k.
func (s *Bar) K() int {
	return s.k
}

// SetIndexInfo sets a short index description, such as "exact/cosine 120 chunks".
func (s *Bar) SetIndexInfo(info string) {
	s.index = info
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
