// ABOUTME: Background availability monitor for the generation provider
// ABOUTME: Maintains a shared advisory flag refreshed on a fixed interval
package llm

import (
	"context"
	"log"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ProbeFunc performs one lightweight liveness check against the provider.
type ProbeFunc func(ctx context.Context) error

// AvailabilityMonitor periodically polls a lightweight provider endpoint
// and keeps a shared "available" flag. It is purely advisory and never
// blocks the pipeline.
type AvailabilityMonitor struct {
	probe      ProbeFunc
	interval   time.Duration
	staleAfter time.Duration

	mu        sync.Mutex
	available bool
	checkedAt time.Time

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAvailabilityMonitor builds a monitor that probes the models
// endpoint of the given OpenAI client.
func NewAvailabilityMonitor(api *openai.Client, interval time.Duration) *AvailabilityMonitor {
	probe := func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, err := api.ListModels(probeCtx)
		return err
	}
	return NewAvailabilityMonitorWithProbe(probe, interval)
}

// NewAvailabilityMonitorWithProbe builds a monitor around an arbitrary
// probe, which tests inject.
func NewAvailabilityMonitorWithProbe(probe ProbeFunc, interval time.Duration) *AvailabilityMonitor {
	return &AvailabilityMonitor{
		probe:      probe,
		interval:   interval,
		staleAfter: 2 * interval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the background refresh loop. The first probe runs
// immediately so the flag is usable right away.
func (m *AvailabilityMonitor) Start(ctx context.Context) {
	m.started = true
	go func() {
		defer close(m.done)
		_ = m.Probe(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = m.Probe(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the refresh loop and waits for it to exit.
func (m *AvailabilityMonitor) Stop() {
	if !m.started {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// Probe runs one liveness check and records the result.
func (m *AvailabilityMonitor) Probe(ctx context.Context) error {
	err := m.probe(ctx)

	m.mu.Lock()
	m.available = err == nil
	m.checkedAt = time.Now()
	m.mu.Unlock()

	if err != nil {
		log.Printf("[Availability] provider probe failed: %v", err)
	}
	return err
}

// Status returns the current flag and whether it is fresh enough to
// trust. Callers with a stale flag should fall back to a direct Probe.
func (m *AvailabilityMonitor) Status() (available bool, fresh bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkedAt.IsZero() {
		return false, false
	}
	return m.available, time.Since(m.checkedAt) <= m.staleAfter
}
