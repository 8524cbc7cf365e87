// Package testclock provides a manually-advanceable clock for deterministically
// exercising the exporter's time-trigger and retry-backoff paths without
// real sleeps.
package testclock

import (
	"sync"
	"time"
)

// Clock is a manually advanceable fake implementing the same shape as
// observability.Clock (Now/Sleep), defined independently here to keep this
// package import-free of the core package.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// New returns a Clock starting at t.
func New(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the fake clock by d instead of blocking. Retry backoff
// sleeps through the Clock interface, and the time-trigger check reads Now
// through it, so for those paths advancing here looks like a real sleep
// having elapsed. The batch-wait timer itself is a real time.AfterFunc and
// does not fire when this clock advances.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Advance moves the fake clock forward by d without going through Sleep,
// simulating wall-clock time passing between events.
func (c *Clock) Advance(d time.Duration) {
	c.Sleep(d)
}
