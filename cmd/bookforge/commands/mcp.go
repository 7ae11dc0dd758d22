// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to drive book generation via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/mcp"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs bookforge as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to start, resume, and inspect book generation
runs via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  bookforge mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "bookforge": {
  #       "command": "bookforge",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil && !quiet {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, monitor, err := llm.NewMonitoredClient(cfg)
	if err != nil {
		return fmt.Errorf("initializing generator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	monitor.Start(ctx)
	defer monitor.Stop()

	server := mcpserver.NewMCPServer(
		"Bookforge",
		"0.1.0",
	)

	// Register MCP tools and get handlers for shutdown
	handlers := mcp.RegisterTools(server, cfg, client)

	if !quiet {
		log.Println("Bookforge MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, gracefully shutting down...")
		}

		// Wait for background generation runs to finish their current phase
		handlers.Shutdown()

		if !quiet {
			log.Println("Shutdown complete")
		}

	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
