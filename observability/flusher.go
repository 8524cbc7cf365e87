package observability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
)

// FlushReason classifies why a flush ran.
type FlushReason int

const (
	// FlushSize means totalSize reached maxBatchSize.
	FlushSize FlushReason = iota
	// FlushOverflow means totalSize reached maxBufferSize (emergency flush).
	FlushOverflow
	// FlushTime means the batch-wait timer elapsed with a non-empty buffer.
	FlushTime
	// FlushManual means Exporter.Flush or Shutdown forced the flush.
	FlushManual
)

// String renders the reason for logging.
func (r FlushReason) String() string {
	switch r {
	case FlushSize:
		return "size"
	case FlushOverflow:
		return "overflow"
	case FlushTime:
		return "time"
	case FlushManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Flusher owns the live Buffer and its batch-wait timer as a single
// invariant-bearing resource (DESIGN NOTES §9): every mutation to the
// buffer and every scheduling/cancellation of the timer happens under mu,
// so a size-triggered flush can never race a time-triggered one.
type Flusher struct {
	cfg      Config
	clock    Clock
	store    ObservabilityStore
	tracker  *SpanTracker
	metrics  metrics.Client
	policy   RetryPolicy
	strategy Strategy

	mu    sync.Mutex
	buf   *Buffer
	timer *time.Timer

	retryWG sync.WaitGroup
}

// NewFlusher builds a Flusher around an empty Buffer for the given
// (already-resolved) strategy.
func NewFlusher(cfg Config, clock Clock, store ObservabilityStore, tracker *SpanTracker, m metrics.Client, strategy Strategy) *Flusher {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Flusher{
		cfg:      cfg,
		clock:    clock,
		store:    store,
		tracker:  tracker,
		metrics:  m,
		policy:   cfg.retryPolicy(),
		strategy: strategy,
		buf:      NewBuffer(),
	}
}

// WithBuffer runs fn with the buffer locked, scheduling or canceling the
// batch-wait timer as fn's mutation requires, then evaluates the flush
// trigger before releasing the lock. This is the single entry point
// EventRouter uses to mutate buffer state, keeping buffer+timer+trigger
// evaluation atomic.
func (f *Flusher) WithBuffer(fn func(buf *Buffer, now time.Time)) {
	now := f.clock.Now()

	f.mu.Lock()
	wasEmpty := f.buf.Empty()
	fn(f.buf, now)
	if wasEmpty && !f.buf.Empty() {
		f.scheduleTimerLocked()
	}
	f.metrics.Gauge(metrics.BufferSize, float64(f.buf.TotalSize()), nil, 1)
	reason, shouldFlush := f.shouldFlushLocked(now)
	var snap Snapshot
	if shouldFlush {
		f.cancelTimerLocked()
		snap = f.buf.snapshot(reason)
		f.buf.Reset()
	}
	f.mu.Unlock()

	if shouldFlush {
		f.runFlush(snap, false)
	}
}

// Buffer exposes the live buffer for read-only observers (TotalSize,
// OutOfOrderCount, ...). Safe because Buffer's own fields are only ever
// mutated under Flusher.mu via WithBuffer; callers reading through this
// accessor should treat values as a momentary snapshot.
func (f *Flusher) Buffer() *Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf
}

func (f *Flusher) shouldFlushLocked(now time.Time) (FlushReason, bool) {
	total := f.buf.TotalSize()
	if total == 0 {
		return 0, false
	}
	if total >= f.cfg.MaxBufferSize {
		return FlushOverflow, true
	}
	if total >= f.cfg.MaxBatchSize {
		return FlushSize, true
	}
	if first, ok := f.buf.FirstEventTime(); ok {
		if now.Sub(first) >= f.cfg.MaxBatchWait {
			return FlushTime, true
		}
	}
	return 0, false
}

func (f *Flusher) scheduleTimerLocked() {
	if f.timer != nil {
		return
	}
	f.timer = time.AfterFunc(f.cfg.MaxBatchWait, f.onTimerFired)
}

func (f *Flusher) cancelTimerLocked() {
	if f.timer == nil {
		return
	}
	f.timer.Stop()
	f.timer = nil
}

func (f *Flusher) onTimerFired() {
	f.mu.Lock()
	f.timer = nil
	now := f.clock.Now()
	reason, shouldFlush := f.shouldFlushLocked(now)
	if !shouldFlush {
		f.mu.Unlock()
		return
	}
	snap := f.buf.snapshot(reason)
	f.buf.Reset()
	f.mu.Unlock()

	f.runFlush(snap, false)
}

// Flush forces a synchronous flush of the live buffer, if non-empty, and
// awaits at least the first retry attempt before returning (spec.md §4.5).
func (f *Flusher) Flush() {
	f.mu.Lock()
	if f.buf.Empty() {
		f.mu.Unlock()
		return
	}
	f.cancelTimerLocked()
	snap := f.buf.snapshot(FlushManual)
	f.buf.Reset()
	f.mu.Unlock()

	f.runFlush(snap, true)
}

// Wait blocks until every in-flight retry goroutine has finished, used by
// Shutdown to guarantee the buffer is empty or definitively dropped before
// returning.
func (f *Flusher) Wait() {
	f.retryWG.Wait()
}

// runFlush executes the synchronous first attempt and, on failure with
// retries left, launches the remaining attempts in a background goroutine
// tracked by retryWG. If await is true, the first attempt runs on the
// caller's goroutine (Exporter.Flush's contract); otherwise the whole chain,
// including the first attempt, runs in the background so event ingestion
// is never blocked by a store call (spec.md §5).
func (f *Flusher) runFlush(snap Snapshot, await bool) {
	if await {
		f.flushAttempt(snap, 0)
		return
	}
	f.retryWG.Add(1)
	go func() {
		defer f.retryWG.Done()
		f.flushAttempt(snap, 0)
	}()
}

// flushAttempt performs attempt `attempt` (0 = first try) of the batch
// write. On a retryable failure it schedules the next attempt on a tracked
// background goroutine after sleeping for the backoff delay.
func (f *Flusher) flushAttempt(snap Snapshot, attempt int) {
	err := f.writeBatch(snap)
	if err == nil {
		f.tracker.PruneCompleted(snap.CompletedSpans)
		f.metrics.Gauge(metrics.TrackerSize, float64(f.tracker.Len()), nil, 1)
		f.metrics.Count(metrics.FlushBatches, 1, nil, 1)
		f.metrics.Count(metrics.FlushSpans, int64(snap.TotalSize()), nil, 1)
		return
	}

	if !f.policy.Exhausted(attempt + 1) {
		delay := f.policy.Delay(attempt + 1)
		log.Warn("Batch flush failed, retrying: attempt=%d nextRetryInMs=%d error=%v", attempt+1, delay.Milliseconds(), err)
		f.metrics.Count(metrics.FlushRetries, 1, nil, 1)
		f.retryWG.Add(1)
		go func() {
			defer f.retryWG.Done()
			f.clock.Sleep(delay)
			f.flushAttempt(snap, attempt+1)
		}()
		return
	}

	log.Error("Batch flush failed after all retries, dropping batch: finalAttempt=%d droppedBatchSize=%d error=%v", attempt+1, snap.TotalSize(), err)
	f.metrics.Count(metrics.FlushDropped, int64(snap.TotalSize()), nil, 1)
	// The data is lost; keeping tracker entries for its completed members
	// would leak memory indefinitely (DESIGN NOTES §9).
	f.tracker.PruneCompleted(snap.CompletedSpans)
	f.metrics.Gauge(metrics.TrackerSize, float64(f.tracker.Len()), nil, 1)
}

func (f *Flusher) writeBatch(snap Snapshot) error {
	ctx := context.Background()
	switch f.strategyHint() {
	case StrategyInsertOnly:
		if len(snap.InsertOnly) == 0 {
			return nil
		}
		return f.store.BatchCreateSpans(ctx, snap.InsertOnly)
	default: // StrategyBatchWithUpdates (the only other buffered strategy)
		if len(snap.Creates) > 0 {
			if err := f.store.BatchCreateSpans(ctx, snap.Creates); err != nil {
				return err
			}
		}
		if len(snap.Updates) == 0 {
			return nil
		}
		updates := make([]SequencedUpdate, len(snap.Updates))
		copy(updates, snap.Updates)
		sort.SliceStable(updates, func(i, j int) bool {
			if updates[i].SpanKey != updates[j].SpanKey {
				return spanKeyLess(updates[i].SpanKey, updates[j].SpanKey)
			}
			return updates[i].SequenceNumber < updates[j].SequenceNumber
		})
		return f.store.BatchUpdateSpans(ctx, updates)
	}
}

func spanKeyLess(a, b SpanKey) bool {
	if a.TraceID != b.TraceID {
		return a.TraceID < b.TraceID
	}
	return a.SpanID < b.SpanID
}

// strategyHint returns the strategy passed to NewFlusher; Flusher needs it
// only to decide which slice(s) of the snapshot to write.
func (f *Flusher) strategyHint() Strategy {
	return f.strategy
}
