package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/chunk"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView   *menu.View
	searchView *search.View
	chunkView  *chunk.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	app := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		searchView:  search.NewView(s, nil, ports.Retriever, ports.Answer),
		chunkView:   chunk.NewView(s),
		currentView: messages.ViewMenu,
	}

	if ports.Indexer != nil {
		stats := ports.Indexer.Stats()
		app.menuView.SetStats(stats)
		app.searchView.SetIndexInfo(fmt.Sprintf("%s/%s", stats.Kind, stats.Metric))
	}

	return app, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// WithK sets the number of results retrieved per query.
func (a *App) WithK(k int) *App {
	if k > 0 {
		a.searchView.SetK(k)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ragcore"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateActive(msg)

	case messages.RetrieveCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ResultSelected:
		a.chunkView.SetResult(msg.Result)
		a.currentView = messages.ViewChunk
		return a, nil

	case messages.ContextAssembled:
		a.searchView, cmd = a.searchView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
			return a, cmd
		}
		a.chunkView.SetPrompt(msg.Query, msg.Prompt)
		a.currentView = messages.ViewChunk
		return a, cmd

	case messages.ViewChanged:
		previous := a.currentView
		a.currentView = msg.View
		if msg.View == messages.ViewSearch && previous == messages.ViewMenu {
			a.searchView.Reset()
			return a, a.searchView.Init()
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewChunk:
			a.chunkView, cmd = a.chunkView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd
	}

	return a.updateActive(msg)
}

// updateActive forwards msg to the active view.
func (a *App) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
	case messages.ViewChunk:
		a.chunkView, cmd = a.chunkView.Update(msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewChunk:
		return a.chunkView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter query
  enter       Retrieve
  esc         Back to Menu

Results:
  j/k, ↑/↓    Navigate results
  enter       Open chunk
  c           Assemble context for the query
  +/-         Retrieve more or fewer results
  n, /        New query

Chunk:
  j/k, ↑/↓    Scroll
  esc         Back to results

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the text in the search input.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// K returns the number of results retrieved per query.
func (a *App) K() int {
	return a.searchView.K()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.chunkView.SetDimensions(width, height)
}
