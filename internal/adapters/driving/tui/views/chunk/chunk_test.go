package chunk

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func sampleResult() domain.SearchResult {
	return domain.SearchResult{
		Chunk: domain.Chunk{
			ID:         "doc-1#120",
			DocumentID: "doc-1",
			Offset:     120,
			Text:       "Cats sleep for most of the day and hunt at dusk.",
			Metadata:   map[string]string{"source": "cats.md", "lang": "en"},
		},
		Score: 0.9123,
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Result())
	assert.Equal(t, "", view.Prompt())
	assert.Nil(t, view.Init())
}

func TestView_SetResult(t *testing.T) {
	view := NewView(nil)
	view.SetError(errors.New("old"))
	view.SetPrompt("q", "p")

	view.SetResult(sampleResult())

	require.NotNil(t, view.Result())
	assert.Equal(t, "doc-1", view.Result().Chunk.DocumentID)
	assert.Equal(t, "", view.Prompt())
	assert.NoError(t, view.Err())
}

func TestView_SetPrompt(t *testing.T) {
	view := NewView(nil)
	view.SetResult(sampleResult())

	view.SetPrompt("what do cats do", "Context:\n[cats.md]\nCats sleep.")

	assert.Nil(t, view.Result())
	assert.Contains(t, view.Prompt(), "Cats sleep.")
}

func TestView_View_Result(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 40)
	view.SetResult(sampleResult())

	out := view.View()

	assert.Contains(t, out, "Chunk")
	assert.Contains(t, out, "cats.md")
	assert.Contains(t, out, "doc-1#120")
	assert.Contains(t, out, "0.9123")
	assert.Contains(t, out, "Metadata:")
	assert.Contains(t, out, "lang: en")
	assert.Contains(t, out, "hunt at dusk")
	assert.Less(t, strings.Index(out, "lang: en"), strings.Index(out, "source: cats.md"), "metadata keys sorted")
}

func TestView_View_Prompt(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 40)
	view.SetPrompt("what do cats do", "Answer using the context.")

	out := view.View()

	assert.Contains(t, out, "Assembled Context")
	assert.Contains(t, out, "what do cats do")
	assert.Contains(t, out, "Answer using the context.")
}

func TestView_View_Empty(t *testing.T) {
	view := NewView(nil)

	assert.Contains(t, view.View(), "Nothing selected")
}

func TestView_View_Error(t *testing.T) {
	view := NewView(nil)
	view.SetResult(sampleResult())

	view.Update(messages.ErrorOccurred{Err: errors.New("lookup failed")})

	assert.Contains(t, view.View(), "Error: lookup failed")
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(40, 10)
	result := sampleResult()
	result.Chunk.Text = strings.Repeat("line of chunk text\n", 30)
	view.SetResult(result)

	view.Update(keyMsg("up"))
	assert.Equal(t, 0, view.ScrollOffset(), "cannot scroll above top")

	view.Update(keyMsg("down"))
	view.Update(keyMsg("j"))
	assert.Equal(t, 2, view.ScrollOffset())

	view.Update(keyMsg("k"))
	assert.Equal(t, 1, view.ScrollOffset())

	view.Update(keyMsg("G"))
	last := view.ScrollOffset()
	assert.Positive(t, last)
	view.Update(keyMsg("down"))
	assert.Equal(t, last, view.ScrollOffset(), "cannot scroll past bottom")
	assert.Contains(t, view.View(), "[Line")

	view.Update(keyMsg("g"))
	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_SetResult_ResetsScroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(40, 10)
	result := sampleResult()
	result.Chunk.Text = strings.Repeat("x\n", 40)
	view.SetResult(result)
	view.Update(keyMsg("G"))
	require.Positive(t, view.ScrollOffset())

	view.SetResult(sampleResult())

	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_Esc_BackToSearch(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(keyMsg("esc"))
	require.NotNil(t, cmd)

	msg := cmd()
	changed, ok := msg.(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewSearch, changed.View)
}

func TestView_WindowSize(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.WindowSizeMsg{Width: 90, Height: 30})

	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 90, view.width)
}
