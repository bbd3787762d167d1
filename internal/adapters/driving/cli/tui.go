package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui"
)

// runApp runs a TUI app. Tests replace it.
var runApp = (*tui.App).Run

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for ragcore.

Type a query to see the ranked chunks with their scores and sources, open a
chunk to read it in full, or assemble the context prompt for the query.

Controls:
  ↑/k, ↓/j - Navigate results
  Enter    - Retrieve / Open chunk
  c        - Assemble context
  +/-      - More or fewer results
  Esc      - Back
  q        - Quit (from the menu)`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	app, err := tui.NewApp(tui.NewPorts(p.Retriever, p.Answer, p.Indexer))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd)).WithK(p.Config.Retriever.K)

	if err := runApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
