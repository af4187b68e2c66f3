package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro"
	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts roteiro as an MCP Server, exposing the script tools to AI
agents: list products, start a script, render steps, advance, go back.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must stay on stderr so they don't corrupt JSON-RPC on stdout.
		logger := logging.New(logging.ParseLevel(cfg.LogLevel))
		slog.SetDefault(logger)

		app, err := cli.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			log.Fatalf("Error initializing roteiro: %v", err)
		}
		defer app.Close()

		srv := mcp.NewServer(app.Repo, roteiro.Version)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("starting roteiro MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("starting roteiro MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP server execution failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8323, "Port to listen on (only for SSE)")
}
