package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/api"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// listen serves an HTTP handler until the context ends. Tests replace it.
var listen = api.ListenAndServe

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves retrieval over HTTP:

  POST /v1/retrieve   {"query", "k", "filters"}
  POST /v1/context    {"query", "k", "max_context_chars"}
  POST /v1/documents  {"documents": [{"id", "text", "metadata"}]}
  GET  /v1/stats
  GET  /healthz
  GET  /metrics

The MCP streamable HTTP endpoint is mounted at /mcp.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	opts := []api.Option{api.WithMetrics(p.Metrics)}

	mcpServer, err := mcp.NewServer(&mcp.Ports{
		Retriever: p.Retriever,
		Answer:    p.Answer,
		Indexer:   p.Indexer,
	})
	if err != nil {
		logger.Warn("MCP endpoint disabled: %v", err)
	} else {
		opts = append(opts, api.WithMCP(mcpServer.Handler()))
	}

	handler := api.NewHandler(p.Retriever, p.Answer, p.Indexer, opts...)

	cmd.Printf("Serving %d chunks on http://%s\n", p.Indexer.Stats().Entries, serveAddr)
	return listen(commandContext(cmd), serveAddr, api.NewRouter(handler))
}
