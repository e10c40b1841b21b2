package main

import (
	"context"

	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes scenario runs as MCP tools (run_scenario, validate_scenario,
get_run, list_runs) and the scenario schema as a resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		// Logs go to stderr so that they never corrupt JSON-RPC on stdout.
		return cli.ServeMCP(ctx, cli.MCPOptions{
			EnvOptions: envOptions(cmd),
			Transport:  transport,
			Port:       port,
			Debug:      debugFlag(cmd),
		}, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
