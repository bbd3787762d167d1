package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	contextK        int
	contextMaxChars int
	contextJSON     bool
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Print the prompt assembled from retrieved chunks",
	Long: `Retrieves the chunks for a query and assembles them, with their
sources, into the prompt that would be sent to a language model. Chunks are
added best first until --max-chars is reached.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextK, "top-k", "k", 0, "number of chunks to retrieve (default retriever.k)")
	contextCmd.Flags().IntVar(&contextMaxChars, "max-chars", 0, "context budget in characters (default assembler.max_context_chars)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the prompt and sources as JSON")
	rootCmd.AddCommand(contextCmd)
}

// contextJSONOutput is the JSON form of an assembled context.
type contextJSONOutput struct {
	Prompt  string       `json:"prompt"`
	Sources []resultJSON `json:"sources"`
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextMaxChars < 0 {
		return fmt.Errorf("%w: --max-chars must not be negative", domain.ErrInvalidInput)
	}

	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	prompt, results, err := p.Answer.ContextWithin(commandContext(cmd), args[0],
		domain.RetrieveOptions{K: contextK}, contextMaxChars)
	if err != nil {
		return fmt.Errorf("context failed: %w", err)
	}

	if contextJSON {
		data, err := json.MarshalIndent(contextJSONOutput{
			Prompt:  prompt,
			Sources: toResultJSON(results),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(prompt)
	return nil
}
