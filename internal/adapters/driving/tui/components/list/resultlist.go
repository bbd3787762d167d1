// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// ResultList displays retrieved chunks in a navigable list.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		results:  nil,
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		case "home", "g":
			r.selected = 0
		case "end", "G":
			if len(r.results) > 0 {
				r.selected = len(r.results) - 1
			}
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No matching chunks")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	// Each result takes two lines.
	visibleCount := max((r.height-4)/2, 1)

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats a result as a citation line and a preview line.
func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	citation := truncate(fmt.Sprintf("[%s @%d]", result.Chunk.Source(), result.Chunk.Offset), max(r.width-24, 10))
	score := fmt.Sprintf("%.3f", result.Score)

	var head string
	if index == r.selected {
		head = r.styles.Selected.Render(indicator+citation) + "  " + r.styles.Score.Render(score)
	} else {
		head = r.styles.Normal.Render(indicator) + r.styles.Source.Render(citation) + "  " + r.styles.Muted.Render(score)
	}
	head += " " + r.styles.ScoreBar(result.Score)

	preview := truncate(strings.Join(strings.Fields(result.Chunk.Text), " "), max(r.width-6, 20))
	return head + "\n" + r.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults updates the result list.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if len(r.results) == 0 || r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Width returns the current width.
func (r *ResultList) Width() int {
	return r.width
}

// Height returns the current height.
func (r *ResultList) Height() int {
	return r.height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
