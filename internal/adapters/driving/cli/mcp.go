package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragcore/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

It exposes the tools retrieve, assemble_context and index_stats, and the
resources ragcore://index/stats and ragcore://settings.

By default the server communicates over stdio using JSON-RPC. Use --http to
serve streamable HTTP instead, for the MCP Inspector or remote access.

Examples:
  # Stdio mode (default, for desktop assistants)
  ragcore mcp

  # HTTP mode
  ragcore mcp --http 127.0.0.1:8090

Assistant configuration:
  {
    "mcpServers": {
      "ragcore": {
        "command": "/path/to/ragcore",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	ports := &mcp.Ports{
		Retriever: p.Retriever,
		Answer:    p.Answer,
		Indexer:   p.Indexer,
	}
	if settings, err := settingsService(); err == nil {
		ports.Settings = settings
	} else {
		logger.Debug("Settings resource disabled: %v", err)
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}

	return server.Run(ctx)
}
