package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

func typeText(q *QueryInput, text string) {
	for _, r := range text {
		q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQueryInput(t *testing.T) {
	q := NewQueryInput(styles.DefaultStyles())

	require.NotNil(t, q)
	assert.Equal(t, "", q.Value())
	assert.True(t, q.Focused())
	assert.Equal(t, 50, q.Width())
}

func TestNewQueryInput_NilStyles(t *testing.T) {
	q := NewQueryInput(nil)

	require.NotNil(t, q)
	assert.NotNil(t, q.styles)
}

func TestQueryInput_Init(t *testing.T) {
	assert.NotNil(t, NewQueryInput(nil).Init())
}

func TestQueryInput_Typing(t *testing.T) {
	q := NewQueryInput(nil)

	typeText(q, "what do cats eat")
	assert.Equal(t, "what do cats eat", q.Value())

	q.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "what do cats ea", q.Value())
}

func TestQueryInput_CharLimit(t *testing.T) {
	q := NewQueryInput(nil)

	typeText(q, strings.Repeat("x", charLimit+10))

	assert.Len(t, q.Value(), charLimit)
}

func TestQueryInput_View(t *testing.T) {
	q := NewQueryInput(nil)

	assert.Contains(t, q.View(), "Query")
}

func TestQueryInput_FocusAndBlur(t *testing.T) {
	q := NewQueryInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	cmd := q.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, q.Focused())
}

func TestQueryInput_SetWidth(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 88, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQueryInput_SetValueAndReset(t *testing.T) {
	q := NewQueryInput(nil)

	q.SetValue("hello")
	assert.Equal(t, "hello", q.Value())

	q.Reset()
	assert.Equal(t, "", q.Value())
}
