package observability

import "sync"

// SpanTracker is the process-lifetime set of SpanKeys whose create record
// has reached storage (or a prior, still in-flight batch) and whose
// terminal batch has not yet resolved. It survives across flushes and is
// pruned only once a span's terminal batch lands or is definitively
// dropped (spec.md §3, §4.3).
//
// It is safe for concurrent use: the Flusher prunes it from a detached
// goroutine running the retry loop while the EventRouter may be consulting
// it for a fresh event at the same time.
type SpanTracker struct {
	mu   sync.Mutex
	keys map[SpanKey]bool
}

// NewSpanTracker returns an empty SpanTracker.
func NewSpanTracker() *SpanTracker {
	return &SpanTracker{keys: make(map[SpanKey]bool)}
}

// Add records that key's create has been submitted.
func (t *SpanTracker) Add(key SpanKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys[key] = true
}

// Has reports whether key is currently tracked.
func (t *SpanTracker) Has(key SpanKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keys[key]
}

// Remove prunes key, e.g. after its terminal batch lands or is dropped.
func (t *SpanTracker) Remove(key SpanKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.keys, key)
}

// PruneCompleted removes every key in completed from the tracker. Called
// by the Flusher after a batch both succeeds and after a batch exhausts
// its retries (spec.md §4.3 and §4.7).
func (t *SpanTracker) PruneCompleted(completed map[SpanKey]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range completed {
		delete(t.keys, k)
	}
}

// Len returns the number of tracked spans. Exposed as a read-only observer
// for test assertions against spec.md §8 P3, not a test-only hack (DESIGN
// NOTES §9).
func (t *SpanTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

// Keys returns a snapshot of the currently tracked keys.
func (t *SpanTracker) Keys() []SpanKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanKey, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	return out
}
