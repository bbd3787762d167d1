package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles())

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Len(t, view.Items(), 3)
	assert.Equal(t, 0, view.Selected())
	assert.Equal(t, 80, view.width)
	assert.Equal(t, 24, view.height)
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
}

func TestView_Init(t *testing.T) {
	assert.Nil(t, NewView(nil).Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 50, view.height)
}

func TestView_Update_Navigate(t *testing.T) {
	view := NewView(nil)
	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	up := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.Selected())

	view.Update(down)
	assert.Equal(t, 2, view.Selected())

	view.Update(down)
	assert.Equal(t, 2, view.Selected(), "stops at last item")

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	view.Update(up)
	assert.Equal(t, 0, view.Selected())

	view.Update(up)
	assert.Equal(t, 0, view.Selected(), "stops at first item")
}

func TestView_Update_Enter(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     messages.ViewType
	}{
		{name: "search", selected: 0, want: messages.ViewSearch},
		{name: "help", selected: 1, want: messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)

			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
		})
	}
}

func TestView_Update_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 2

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View_NotReady(t *testing.T) {
	assert.Equal(t, "Initialising...", NewView(nil).View())
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 24)

	out := view.View()

	assert.Contains(t, out, "ragcore")
	assert.Contains(t, out, "Search")
	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "Quit")
	assert.Contains(t, out, "> ")
}

func TestView_View_Stats(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(120, 24)

	view.SetStats(domain.IndexStats{})
	assert.Contains(t, view.View(), "Index is empty")

	view.SetStats(domain.IndexStats{
		Kind: domain.IndexKindExact, Metric: domain.MetricCosine,
		Dimension: 384, Entries: 120, Documents: 8,
	})
	out := view.View()
	assert.Contains(t, out, "120 chunks from 8 documents")
	assert.Contains(t, out, "exact index")
	assert.Contains(t, out, "dim 384")
}
