// ABOUTME: Tests for the availability monitor flag and freshness rules
// ABOUTME: Uses an injected probe instead of real provider calls

package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAvailabilityMonitor_StatusBeforeAnyProbe(t *testing.T) {
	m := NewAvailabilityMonitorWithProbe(func(ctx context.Context) error { return nil }, time.Minute)
	available, fresh := m.Status()
	if available || fresh {
		t.Errorf("Status() before any probe = (%v, %v), want (false, false)", available, fresh)
	}
}

func TestAvailabilityMonitor_ProbeRecordsResult(t *testing.T) {
	probeErr := error(nil)
	m := NewAvailabilityMonitorWithProbe(func(ctx context.Context) error { return probeErr }, time.Minute)

	if err := m.Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	available, fresh := m.Status()
	if !available || !fresh {
		t.Errorf("Status() after successful probe = (%v, %v), want (true, true)", available, fresh)
	}

	probeErr = errors.New("provider down")
	if err := m.Probe(context.Background()); err == nil {
		t.Fatal("Probe() should propagate the probe error")
	}
	available, fresh = m.Status()
	if available || !fresh {
		t.Errorf("Status() after failed probe = (%v, %v), want (false, true)", available, fresh)
	}
}

func TestAvailabilityMonitor_Staleness(t *testing.T) {
	// Tiny interval so the flag goes stale quickly.
	m := NewAvailabilityMonitorWithProbe(func(ctx context.Context) error { return nil }, 5*time.Millisecond)
	if err := m.Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	time.Sleep(25 * time.Millisecond)
	_, fresh := m.Status()
	if fresh {
		t.Error("flag older than twice the interval should be stale")
	}
}

func TestAvailabilityMonitor_StartStop(t *testing.T) {
	probes := make(chan struct{}, 16)
	m := NewAvailabilityMonitorWithProbe(func(ctx context.Context) error {
		select {
		case probes <- struct{}{}:
		default:
		}
		return nil
	}, 5*time.Millisecond)

	m.Start(context.Background())
	select {
	case <-probes:
	case <-time.After(time.Second):
		t.Fatal("no probe ran after Start()")
	}
	m.Stop()

	// Stop is idempotent.
	m.Stop()
}

func TestAvailabilityMonitor_StopWithoutStart(t *testing.T) {
	m := NewAvailabilityMonitorWithProbe(func(ctx context.Context) error { return nil }, time.Minute)
	// Must not hang.
	m.Stop()
}
