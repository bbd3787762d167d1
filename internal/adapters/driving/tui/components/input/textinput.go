// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// charLimit bounds the query length.
const charLimit = 512

// QueryInput wraps a bubbles textinput for entering retrieval queries.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the input.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the input.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
