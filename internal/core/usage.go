// ABOUTME: Process-wide token usage counters shared across all phases
// ABOUTME: Atomic so future parallel phases could share them without redesign
package core

import (
	"sync/atomic"

	"github.com/AuthorWorks/bookforge/internal/llm"
)

// TokenUsageTracker accumulates prompt and completion tokens for one
// run. Counters are monotonically increasing and never reset mid-run.
type TokenUsageTracker struct {
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

// NewTokenUsageTracker returns a zeroed tracker.
func NewTokenUsageTracker() *TokenUsageTracker {
	return &TokenUsageTracker{}
}

// Add records the usage of one generator call.
func (t *TokenUsageTracker) Add(usage *llm.Usage) {
	if usage == nil {
		return
	}
	t.promptTokens.Add(int64(usage.PromptTokens))
	t.completionTokens.Add(int64(usage.CompletionTokens))
}

// Totals returns the accumulated prompt and completion token counts.
func (t *TokenUsageTracker) Totals() (prompt, completion int64) {
	return t.promptTokens.Load(), t.completionTokens.Load()
}
