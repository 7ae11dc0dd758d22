// ABOUTME: Content-addressed cache mapping context fingerprints to summaries
// ABOUTME: One JSON file per (prefix, index) entry; every hit saves a paid call
package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AuthorWorks/bookforge/internal/models"
)

// ComputeFunc generates a fresh summary from the supplied context. Each
// cache miss invokes it exactly once.
type ComputeFunc func(context string) (models.TemporarySummary, error)

// SummaryCache persists temporary summaries keyed by (prefix, index),
// invalidated when the input context hash changes or the entry exceeds
// its TTL.
type SummaryCache struct {
	dir string
	mu  sync.Mutex
}

// New opens a summary cache rooted at dir, creating it if needed.
func New(dir string) (*SummaryCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &SummaryCache{dir: dir}, nil
}

// GetOrCompute returns the cached summary for (prefix, index) when its
// stored hash matches the supplied context and it is within ttl (ttl <= 0
// disables expiry). Otherwise it computes a fresh summary, persists it
// over any stale entry, and returns it. Corrupt entries are treated as
// misses, never as fatal errors.
func (c *SummaryCache) GetOrCompute(prefix string, index int, context string, ttl time.Duration, compute ComputeFunc) (models.TemporarySummary, error) {
	hash := models.HashContext(context)
	path := c.entryPath(prefix, index)

	c.mu.Lock()
	if cached, ok := c.read(path); ok {
		if cached.ContextHash == hash && !cached.Expired(ttl) {
			c.mu.Unlock()
			log.Printf("[SummaryCache] hit %s_%d", prefix, index)
			return cached, nil
		}
		log.Printf("[SummaryCache] stale %s_%d (hash or TTL)", prefix, index)
	}
	c.mu.Unlock()

	// The lock is not held across compute: it is a full generator call,
	// and compute closures are allowed to consult the cache themselves.
	log.Printf("[SummaryCache] miss %s_%d, computing", prefix, index)
	summary, err := compute(context)
	if err != nil {
		return models.TemporarySummary{}, fmt.Errorf("computing summary %s_%d: %w", prefix, index, err)
	}
	summary.ContextHash = hash
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent caller may have filled the entry while we computed;
	// a matching fresh entry wins so both callers converge on it.
	if cached, ok := c.read(path); ok && cached.ContextHash == hash && !cached.Expired(ttl) {
		return cached, nil
	}
	if err := c.write(path, summary); err != nil {
		return models.TemporarySummary{}, err
	}
	return summary, nil
}

// Put overwrites the entry for (prefix, index) with a summary derived
// outside the cache, re-keyed to the supplied context. The prose phase
// uses this to persist its rolling chapter summary without paying a
// recompute on the next request.
func (c *SummaryCache) Put(prefix string, index int, context string, summary models.TemporarySummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary.ContextHash = models.HashContext(context)
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	return c.write(c.entryPath(prefix, index), summary)
}

// read loads an entry, reporting false for missing or corrupt files.
func (c *SummaryCache) read(path string) (models.TemporarySummary, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[SummaryCache] unreadable entry %s: %v", path, err)
		}
		return models.TemporarySummary{}, false
	}
	var summary models.TemporarySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		log.Printf("[SummaryCache] corrupt entry %s, treating as miss: %v", path, err)
		return models.TemporarySummary{}, false
	}
	return summary, true
}

// write persists an entry with complete-file-replace semantics so a kill
// mid-write never leaves a truncated entry behind.
func (c *SummaryCache) write(path string, summary models.TemporarySummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache entry: %w", err)
	}
	return nil
}

func (c *SummaryCache) entryPath(prefix string, index int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%d.json", prefix, index))
}
