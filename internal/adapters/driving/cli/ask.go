package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	askK           int
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the chunks for a question, assembles them into a prompt
and asks the configured language model to answer from that context.

Requires llm.provider to be set.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of chunks to retrieve (default retriever.k)")
	askCmd.Flags().BoolVar(&askShowSources, "sources", true, "list the sources after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	answer, err := p.Answer.Ask(commandContext(cmd), args[0], domain.RetrieveOptions{K: askK})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if askShowSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			c := answer.Sources[i].Chunk
			cmd.Printf("  [%d] %s @%d (%.3f)\n", i+1, c.Source(), c.Offset, answer.Sources[i].Score)
		}
	}
	return nil
}
