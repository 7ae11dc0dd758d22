// ABOUTME: MCP tool definitions and registration for the bookforge server
// ABOUTME: Defines JSON schemas for the 4 book generation tools
package mcp

import (
	"sync"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, cfg *config.Config, gen llm.Generator) *Handlers {
	handlers := &Handlers{
		cfg:        cfg,
		gen:        gen,
		shutdownWg: &sync.WaitGroup{},
	}

	// 1. generate_book - start or resume a book generation run
	server.AddTool(mcp.Tool{
		Name:        "generate_book",
		Description: "Start or resume generation of a book. Runs the full premise-to-prose pipeline in the background; existing artifacts are reused, so calling this on a partial project resumes it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Book title; also determines the project directory name",
				},
				"premise": map[string]interface{}{
					"type":        "string",
					"description": "Optional premise to seed a new project with",
				},
			},
			Required: []string{"title"},
		},
	}, handlers.GenerateBook)

	// 2. project_status - inspect a project's on-disk state
	server.AddTool(mcp.Tool{
		Name:        "project_status",
		Description: "Report the reconstructed state of a book project: outline size, per-chapter artifact coverage, and whether the project is complete.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title of the project to inspect",
				},
			},
			Required: []string{"title"},
		},
	}, handlers.ProjectStatus)

	// 3. list_projects - enumerate known projects
	server.AddTool(mcp.Tool{
		Name:        "list_projects",
		Description: "List all book projects under the configured projects directory with their completion state.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListProjects)

	// 4. token_usage - per-phase token accounting from the ledger
	server.AddTool(mcp.Tool{
		Name:        "token_usage",
		Description: "Report per-phase generator call counts and token totals for a project.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title of the project to report usage for",
				},
			},
			Required: []string{"title"},
		},
	}, handlers.TokenUsage)

	return handlers
}
