// ABOUTME: Main entry point for bookforge MCP server with stdio transport
// ABOUTME: Initializes config, generator client, and MCP server with all tools
package main

import (
	"context"
	"log"
	"os"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/mcp"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	// Verify we have required API keys
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Println("Warning: OPENAI_API_KEY not set - generation tools will not work")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	client, monitor, err := llm.NewMonitoredClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize generator: %v", err)
	}
	monitor.Start(context.Background())
	defer monitor.Stop()

	// Create MCP server
	server := mcpserver.NewMCPServer(
		"Bookforge",
		"0.1.0",
	)

	// Register MCP tools
	handlers := mcp.RegisterTools(server, cfg, client)
	defer handlers.Shutdown()

	// Start server with stdio transport
	log.Println("Bookforge MCP server starting on stdio...")
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
