package main

import (
	"context"
	"os"

	"github.com/aretw0/tlisp/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes evaluation and the automaton library as a JSON API described by /openapi.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			addr := app.Config.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			if watch {
				if err := cli.WatchLibrary(ctx, app, nil); err != nil {
					return err
				}
			}
			return cli.Serve(ctx, app, os.Stderr, addr)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes evaluation and the automaton library as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.ServeMCP(ctx, app, transport, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload library automata when their files change")

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
