package sweep

import (
	"sync"
	"testing"
	"time"
)

// countingCache records Clear calls.
type countingCache struct {
	mu     sync.Mutex
	clears int
}

func (c *countingCache) Clear() {
	c.mu.Lock()
	c.clears++
	c.mu.Unlock()
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

func TestNew_RejectsBadInterval(t *testing.T) {
	if _, err := New(0, &countingCache{}); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := New(-time.Minute, &countingCache{}); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestNew_RequiresCaches(t *testing.T) {
	if _, err := New(time.Hour); err == nil {
		t.Error("expected error for empty cache list")
	}
}

func TestSweep_ClearsAllCaches(t *testing.T) {
	a := &countingCache{}
	b := &countingCache{}
	s, err := New(time.Hour, a, b)
	if err != nil {
		t.Fatal(err)
	}

	s.sweep()
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("clears = %d/%d, want 1/1", a.count(), b.count())
	}
}

func TestSweeper_RunsOnSchedule(t *testing.T) {
	cache := &countingCache{}
	s, err := New(50*time.Millisecond, cache)
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for cache.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSweeper_StopHalts(t *testing.T) {
	cache := &countingCache{}
	s, err := New(time.Hour, cache)
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()

	if cache.count() != 0 {
		t.Errorf("clears = %d, want 0 before first interval", cache.count())
	}
}
