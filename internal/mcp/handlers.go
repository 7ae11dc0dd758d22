// ABOUTME: MCP tool handler implementations for the bookforge server
// ABOUTME: Contains handler implementations with proper error handling for all 4 tools
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AuthorWorks/bookforge/internal/config"
	"github.com/AuthorWorks/bookforge/internal/core"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/models"
	"github.com/AuthorWorks/bookforge/internal/storage"
	"github.com/AuthorWorks/bookforge/internal/util"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	cfg        *config.Config
	gen        llm.Generator
	shutdownWg *sync.WaitGroup // Track background generation runs
}

func (h *Handlers) projectDir(title string) string {
	return filepath.Join(h.cfg.ProjectsDir, util.Slugify(title))
}

// GenerateBook handles the generate_book tool. The pipeline can take
// many minutes, so the run happens in a tracked goroutine and the tool
// returns immediately with the project location.
func (h *Handlers) GenerateBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}
	premise := request.GetString("premise", "")

	dir := h.projectDir(title)
	store, err := storage.Open(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open project: %v", err)), nil
	}

	meta, err := store.LoadMetadata()
	if err != nil {
		meta = &storage.Metadata{Entries: map[string]storage.MetadataEntry{}}
	}
	resumed := meta.Title != ""
	if meta.Title == "" {
		meta.Title = title
		if err := store.SaveMetadata(meta); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save metadata: %v", err)), nil
		}
	}
	if premise != "" {
		if _, ok := store.PhaseResult(models.PhasePremise); !ok {
			if err := store.SetPhaseResult(models.PhasePremise, premise); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to seed premise: %v", err)), nil
			}
		}
	}

	svc, err := core.NewPipelineServices(store, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to initialize pipeline: %v", err)), nil
	}

	h.shutdownWg.Add(1)
	go func() {
		defer h.shutdownWg.Done()
		defer svc.Close()
		orch := core.NewOrchestrator(store, h.gen, svc, h.cfg)
		if err := orch.Run(context.Background()); err != nil {
			log.Printf("[MCP] generation for %q failed: %v", title, err)
		}
	}()

	response := map[string]interface{}{
		"project_dir": dir,
		"resumed":     resumed,
		"status":      "running",
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ProjectStatus handles the project_status tool
func (h *Handlers) ProjectStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}

	dir := h.projectDir(title)
	if _, err := os.Stat(dir); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no project found at %s", dir)), nil
	}

	scanner := storage.NewScanner(h.cfg.CompletionThreshold)
	state, err := scanner.Scan(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to scan project: %v", err)), nil
	}

	chapters := make([]map[string]interface{}, 0, len(state.Chapters))
	for number, ch := range state.Chapters {
		scenesDone := 0
		for _, sc := range ch.Scenes {
			if sc.HasContent {
				scenesDone++
			}
		}
		chapters = append(chapters, map[string]interface{}{
			"number":           number,
			"has_outline":      ch.HasOutline,
			"has_content":      ch.HasContent,
			"scenes_found":     len(ch.Scenes),
			"scenes_with_text": scenesDone,
		})
	}

	outlineChapters := 0
	if state.Outline != nil {
		outlineChapters = state.Outline.ChapterCount()
	}
	response := map[string]interface{}{
		"project_dir":      dir,
		"complete":         state.Complete,
		"outline_chapters": outlineChapters,
		"chapters":         chapters,
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ListProjects handles the list_projects tool
func (h *Handlers) ListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := os.ReadDir(h.cfg.ProjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			responseJSON, _ := json.Marshal(map[string]interface{}{"projects": []interface{}{}})
			return mcp.NewToolResultText(string(responseJSON)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read projects directory: %v", err)), nil
	}

	projects := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(h.cfg.ProjectsDir, entry.Name())
		store, err := storage.Open(dir)
		if err != nil {
			continue
		}
		meta, err := store.LoadMetadata()
		title := entry.Name()
		if err == nil && meta.Title != "" {
			title = meta.Title
		}
		info, _ := entry.Info()
		item := map[string]interface{}{
			"name":     entry.Name(),
			"title":    title,
			"complete": store.IsComplete(),
		}
		if info != nil {
			item["modified_at"] = info.ModTime().Format(time.RFC3339)
		}
		projects = append(projects, item)
	}

	responseJSON, err := json.Marshal(map[string]interface{}{"projects": projects})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// TokenUsage handles the token_usage tool
func (h *Handlers) TokenUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}

	dir := h.projectDir(title)
	ledger, err := storage.OpenLedger(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open ledger: %v", err)), nil
	}
	defer ledger.Close()

	totals, err := ledger.PhaseTotals()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read usage: %v", err)), nil
	}

	phases := make([]map[string]interface{}, 0, len(totals))
	var promptTotal, completionTotal int
	for _, t := range totals {
		phases = append(phases, map[string]interface{}{
			"phase":             t.Phase,
			"calls":             t.Calls,
			"prompt_tokens":     t.PromptTokens,
			"completion_tokens": t.CompletionTokens,
		})
		promptTotal += t.PromptTokens
		completionTotal += t.CompletionTokens
	}

	response := map[string]interface{}{
		"phases":                  phases,
		"total_prompt_tokens":     promptTotal,
		"total_completion_tokens": completionTotal,
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// Shutdown waits for background generation runs to complete
func (h *Handlers) Shutdown() {
	log.Println("Waiting for background generation runs to complete...")
	h.shutdownWg.Wait()
	log.Println("All generation runs completed")
}
