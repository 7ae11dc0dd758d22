// ABOUTME: PipelineServices bundles the shared collaborators of one run
// ABOUTME: Passed explicitly into the orchestrator; no hidden global state
package core

import (
	"log"

	"github.com/AuthorWorks/bookforge/internal/cache"
	"github.com/AuthorWorks/bookforge/internal/llm"
	"github.com/AuthorWorks/bookforge/internal/storage"
)

// PipelineServices holds the cache, usage tracker, availability monitor,
// and call ledger shared by every phase of a run. Monitor and Ledger may
// be nil; the pipeline degrades gracefully without them.
type PipelineServices struct {
	Cache   *cache.SummaryCache
	Usage   *TokenUsageTracker
	Monitor *llm.AvailabilityMonitor
	Ledger  *storage.Ledger
}

// NewPipelineServices wires the standard services for a project. The
// ledger is best-effort: a project on a filesystem without sqlite support
// still generates, it just loses per-call accounting.
func NewPipelineServices(store *storage.ProjectStore, monitor *llm.AvailabilityMonitor) (*PipelineServices, error) {
	summaryCache, err := cache.New(store.CacheDir())
	if err != nil {
		return nil, err
	}

	ledger, err := storage.OpenLedger(store.Dir())
	if err != nil {
		log.Printf("[Services] ledger unavailable, calls will not be recorded: %v", err)
		ledger = nil
	}

	return &PipelineServices{
		Cache:   summaryCache,
		Usage:   NewTokenUsageTracker(),
		Monitor: monitor,
		Ledger:  ledger,
	}, nil
}

// Close releases service resources.
func (s *PipelineServices) Close() {
	if s.Ledger != nil {
		_ = s.Ledger.Close()
	}
	if s.Monitor != nil {
		s.Monitor.Stop()
	}
}
