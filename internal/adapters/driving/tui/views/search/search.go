// Package search provides the query and results view for the TUI.
package search

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

const (
	// DefaultK is the result count used until SetK is called.
	DefaultK = 5
	// MaxK bounds the +/- adjustment.
	MaxK = 50
)

// View is the search view: query input, ranked chunks and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	retriever driving.Retriever
	answer    driving.AnswerService
	ctx       context.Context

	k          int
	lastQuery  string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true while typing, false while navigating results
}

// NewView creates a new search view. answer may be nil, in which case
// context assembly is unavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retriever driving.Retriever,
	answer driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retriever:  retriever,
		answer:     answer,
		ctx:        context.Background(),
		k:          DefaultK,
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.statusbar.SetK(v.k)
	return v
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrieveCompleted:
		v.handleRetrieveCompleted(msg)
		return v, nil

	case messages.ContextAssembled:
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.statusbar.SetState(status.StateResults)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit(v.input.Value())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Select):
		result := v.list.SelectedResult()
		if result == nil {
			return v, nil
		}
		selected := *result
		return v, func() tea.Msg {
			return messages.ResultSelected{Result: selected}
		}
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.Context):
		return v, v.assemble()
	case key.Matches(msg, v.keymap.MoreResults):
		return v, v.adjustK(1)
	case key.Matches(msg, v.keymap.FewerResults):
		return v, v.adjustK(-1)
	}

	return v, nil
}

// submit starts a retrieval for query.
func (v *View) submit(query string) tea.Cmd {
	if query == "" {
		return nil
	}
	v.lastQuery = query
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateRetrieving)
	v.statusbar.SetMessage("")
	return v.performRetrieve(query, v.k)
}

// adjustK changes k by delta within [1, MaxK] and reruns the last query.
func (v *View) adjustK(delta int) tea.Cmd {
	k := v.k + delta
	if k < 1 || k > MaxK {
		return nil
	}
	v.SetK(k)
	if v.lastQuery == "" {
		return nil
	}
	v.statusbar.SetState(status.StateRetrieving)
	return v.performRetrieve(v.lastQuery, k)
}

// performRetrieve runs the retriever off the update loop.
func (v *View) performRetrieve(query string, k int) tea.Cmd {
	retriever := v.retriever
	ctx := v.ctx
	return func() tea.Msg {
		if retriever == nil {
			return messages.ErrorOccurred{Err: ErrNoRetriever}
		}
		results, err := retriever.Retrieve(ctx, query, domain.RetrieveOptions{K: k})
		return messages.RetrieveCompleted{Query: query, Results: results, Err: err}
	}
}

// assemble builds the prompt for the last query.
func (v *View) assemble() tea.Cmd {
	if v.lastQuery == "" {
		return nil
	}
	if v.answer == nil {
		v.statusbar.SetMessage("Context assembly not available")
		return nil
	}

	v.statusbar.SetState(status.StateAssembling)
	answer := v.answer
	ctx := v.ctx
	query := v.lastQuery
	k := v.k
	return func() tea.Msg {
		prompt, _, err := answer.Context(ctx, query, domain.RetrieveOptions{K: k})
		return messages.ContextAssembled{Query: query, Prompt: prompt, Err: err}
	}
}

// handleRetrieveCompleted shows retrieved chunks or the failure.
func (v *View) handleRetrieveCompleted(msg messages.RetrieveCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetResultCount(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("ragcore"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// SetK sets the number of results to retrieve.
func (v *View) SetK(k int) {
	if k < 1 {
		k = 1
	}
	if k > MaxK {
		k = MaxK
	}
	v.k = k
	v.statusbar.SetK(k)
}

// K returns the number of results retrieved per query.
func (v *View) K() int {
	return v.k
}

// SetIndexInfo forwards a short index description to the status bar.
func (v *View) SetIndexInfo(info string) {
	v.statusbar.SetIndexInfo(info)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the text in the query input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the text in the query input.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// LastQuery returns the most recently submitted query.
func (v *View) LastQuery() string {
	return v.lastQuery
}

// Results returns the current results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchResult {
	return v.list.SelectedResult()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty query with input focus.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.lastQuery = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
