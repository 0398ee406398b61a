package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with MCP-compatible AI assistants. Tools: hybrid_search,
keyword_search, semantic_search and rebuild_index.

Use --http to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default)
  recall mcp

  # HTTP mode (for MCP Inspector, remote access)
  recall mcp --http 127.0.0.1:8090

Assistant configuration:
  {
    "mcpServers": {
      "recall": {
        "command": "/path/to/recall",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ports := &mcp.Ports{
		Search:    searchService,
		Embedding: embeddingService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}
