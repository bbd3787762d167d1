package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// defaultWidth is used when the terminal width is unknown.
const defaultWidth = 100

var (
	searchK       int
	searchFilters []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Retrieve the chunks most relevant to a query",
	Long: `Embeds the query and returns the k nearest chunks from the index,
best first. Filters restrict results by document metadata and are combined
with AND:

  ragcore search "deploy steps" --filter team=ops --filter year>=2023

Output is a table on a terminal and JSON when piped or with --json.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top-k", "k", 0, "number of results (default retriever.k)")
	searchCmd.Flags().StringArrayVar(&searchFilters, "filter", nil, "metadata filter key=value, key!=value or key>=value")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}
	if searchK < 0 {
		return fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	results, err := p.Retriever.Retrieve(commandContext(cmd), args[0], domain.RetrieveOptions{
		K:       searchK,
		Filters: filters,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON || !isTerminal(cmd.OutOrStdout()) {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func parseFilters(exprs []string) ([]domain.Filter, error) {
	filters := make([]domain.Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// resultJSON is the JSON form of a search result.
type resultJSON struct {
	ChunkID    string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Offset     int               `json:"offset"`
	Score      float64           `json:"score"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func toResultJSON(results []domain.SearchResult) []resultJSON {
	out := make([]resultJSON, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = resultJSON{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Source:     c.Source(),
			Offset:     c.Offset,
			Score:      results[i].Score,
			Text:       c.Text,
			Metadata:   c.Metadata,
		}
	}
	return out
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(toResultJSON(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	width := terminalWidth(cmd.OutOrStdout())

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		c := results[i].Chunk
		cmd.Printf("  [%d] %s @%d (%.3f)\n", i+1, c.Source(), c.Offset, results[i].Score)
		cmd.Printf("      %s\n", preview(c.Text, width-6))
		cmd.Println()
	}

	return nil
}

// preview collapses whitespace and truncates to n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n < 10 {
		n = 10
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}

// isTerminal reports whether w is a terminal. Writers that are not files,
// such as buffers, count as terminals so tests see the table form.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or defaultWidth when unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
