// Package chunk provides a scrollable view of one retrieved chunk or of an
// assembled prompt.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// View shows either a search result or a prompt.
type View struct {
	styles *styles.Styles

	result       *domain.SearchResult
	query        string
	prompt       string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a new chunk view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetResult shows a retrieved chunk.
func (v *View) SetResult(result domain.SearchResult) {
	v.result = &result
	v.query = ""
	v.prompt = ""
	v.scrollOffset = 0
	v.err = nil
}

// SetPrompt shows the prompt assembled for query.
func (v *View) SetPrompt(query, prompt string) {
	v.result = nil
	v.query = query
	v.prompt = prompt
	v.scrollOffset = 0
	v.err = nil
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chunk view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}

	return v, nil
}

// visibleLines returns the number of content lines that fit.
func (v *View) visibleLines() int {
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

func (v *View) maxScrollOffset() int {
	maxOffset := len(v.buildContent()) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// buildContent lays out the header fields followed by the wrapped body.
func (v *View) buildContent() []string {
	var lines []string
	var body string

	switch {
	case v.result != nil:
		c := v.result.Chunk
		lines = append(lines,
			formatField("Source", c.Source()),
			formatField("Document", c.DocumentID),
			formatField("Chunk", c.ID),
			formatField("Offset", fmt.Sprintf("%d", c.Offset)),
			formatField("Score", fmt.Sprintf("%.4f", v.result.Score)))

		if len(c.Metadata) > 0 {
			lines = append(lines, "", "Metadata:")
			keys := make([]string, 0, len(c.Metadata))
			for k := range c.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				lines = append(lines, fmt.Sprintf("  %s: %s", k, c.Metadata[k]))
			}
		}
		body = c.Text
	case v.prompt != "":
		lines = append(lines, formatField("Query", v.query))
		body = v.prompt
	default:
		return nil
	}

	lines = append(lines, "")
	wrapWidth := v.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	wrapped := lipgloss.NewStyle().Width(wrapWidth).Render(body)
	return append(lines, strings.Split(wrapped, "\n")...)
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-10s %s", label+":", value)
}

// View renders the chunk view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chunk"
	if v.result == nil && v.prompt != "" {
		title = "Assembled Context"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 1)))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	lines := v.buildContent()
	if len(lines) == 0 {
		b.WriteString(v.styles.Muted.Render("Nothing selected"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(lines))
	for _, line := range lines[v.scrollOffset:end] {
		switch {
		case line == "Metadata:":
			b.WriteString(v.styles.Subtitle.Render(line))
		case strings.HasPrefix(line, "  "):
			b.WriteString(v.styles.Muted.Render(line))
		default:
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(lines) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1, end, len(lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Result returns the displayed result, or nil when showing a prompt.
func (v *View) Result() *domain.SearchResult {
	return v.result
}

// Prompt returns the displayed prompt.
func (v *View) Prompt() string {
	return v.prompt
}

// ScrollOffset returns the first visible content line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
