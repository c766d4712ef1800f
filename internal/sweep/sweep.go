// Package sweep periodically clears the grouping caches so a long-running
// process doesn't accumulate stale vectors without bound.
package sweep

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Clearer is anything with cache-clear semantics. Both grouping caches
// satisfy it.
type Clearer interface {
	Clear()
}

// Sweeper clears registered caches on a fixed interval. The sweep runs
// unsynchronized with in-flight lookups; the caches' own locking makes
// that safe, and a lookup racing a sweep just repopulates.
type Sweeper struct {
	cron     *cron.Cron
	interval time.Duration
	caches   []Clearer
}

// New creates a Sweeper. interval must be positive.
func New(interval time.Duration, caches ...Clearer) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep: interval must be positive")
	}
	if len(caches) == 0 {
		return nil, fmt.Errorf("sweep: at least one cache is required")
	}

	s := &Sweeper{
		cron:     cron.New(),
		interval: interval,
		caches:   caches,
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep); err != nil {
		return nil, fmt.Errorf("sweep: schedule: %w", err)
	}
	return s, nil
}

// Start begins the sweep schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep clears every registered cache.
func (s *Sweeper) sweep() {
	for _, c := range s.caches {
		c.Clear()
	}
	log.Printf("sweep: cleared %d caches", len(s.caches))
}
