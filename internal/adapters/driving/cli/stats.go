package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	stats := p.Indexer.Stats()

	if statsJSON {
		data, err := json.MarshalIndent(map[string]any{
			"kind":      stats.Kind,
			"metric":    stats.Metric,
			"dimension": stats.Dimension,
			"entries":   stats.Entries,
			"documents": stats.Documents,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index")
	cmd.Println("=====")
	cmd.Printf("  Kind:      %s\n", stats.Kind)
	cmd.Printf("  Metric:    %s\n", stats.Metric)
	cmd.Printf("  Dimension: %d\n", stats.Dimension)
	cmd.Printf("  Documents: %d\n", stats.Documents)
	cmd.Printf("  Chunks:    %d\n", stats.Entries)
	cmd.Println()
	cmd.Printf("Embedding: %s %s\n", p.Config.Embedding.Provider, p.Config.Embedding.Model)
	if p.Config.Storage.Path != "" {
		cmd.Printf("Storage:   %s\n", p.Config.Storage.Path)
	}

	if stats.Entries == 0 {
		cmd.Println()
		cmd.Println("The index is empty. Run 'ragcore index <paths>' to add documents.")
	}
	return nil
}
