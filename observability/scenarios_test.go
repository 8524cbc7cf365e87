package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
	"github.com/spanforge/exporter-go/internal/testclock"
)

// The tests below exercise the six named scenarios and the P1-P6
// invariants governing strategy resolution, batching, and retry.

func TestScenario1_BatchTriggerBySize(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchSize(2), WithMaxBatchWait(time.Second))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s1", false)})
	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s2", false)})

	f.Wait()
	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
	assert.Len(t, store.batchCreates[0], 2)
	assert.Equal(t, "s1", store.batchCreates[0][0].SpanID)
	assert.Equal(t, "s2", store.batchCreates[0][1].SpanID)
}

func TestScenario2_OutOfOrderUpdate(t *testing.T) {
	rl := &log.RecordLogger{}
	old := log.UseLogger(rl)
	defer log.UseLogger(old)

	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	f := newTestFlusher(store, tracker, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t", "s1", false)})

	assert.NotEmpty(t, rl.Logs())
	_, _, batchCreates, batchUpdates := store.snapshotCounts()
	assert.Equal(t, 0, batchCreates)
	assert.Equal(t, 0, batchUpdates)
	assert.Equal(t, 1, f.Buffer().OutOfOrderCount())
}

func TestScenario3_EventSpan(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	f := newTestFlusher(store, tracker, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t", "e1", true)})
	f.Flush()

	_, _, batchCreates, batchUpdates := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
	assert.Equal(t, 0, batchUpdates)
	assert.Len(t, store.batchCreates[0], 1)
}

func TestScenario4_CrossBatchCompletion(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchSize(10), WithMaxBatchWait(20*time.Millisecond))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s1", false)})
	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s2", false)})

	assert.Eventually(t, func() bool {
		_, _, batchCreates, _ := store.snapshotCounts()
		return batchCreates == 1
	}, time.Second, 5*time.Millisecond)

	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t", "s1", false)})
	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t", "s1", false)})
	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s3", false)})
	f.Flush()

	_, _, batchCreates, batchUpdates := store.snapshotCounts()
	assert.Equal(t, 2, batchCreates)
	require.Equal(t, 1, batchUpdates)
	require.Len(t, store.batchUpdates[0], 2)
	assert.Equal(t, 1, store.batchUpdates[0][0].SequenceNumber)
	assert.Equal(t, 2, store.batchUpdates[0][1].SequenceNumber)

	assert.False(t, tracker.Has(SpanKey{TraceID: "t", SpanID: "s1"}))
	assert.True(t, tracker.Has(SpanKey{TraceID: "t", SpanID: "s2"}))
	assert.True(t, tracker.Has(SpanKey{TraceID: "t", SpanID: "s3"}))
}

func TestScenario5_RetryWithEventualSuccess(t *testing.T) {
	rl := &log.RecordLogger{}
	old := log.UseLogger(rl)
	defer log.UseLogger(old)

	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	store.failBatchCreateTimes = 1
	store.failErr = errors.New("unavailable")
	tracker := NewSpanTracker()
	clock := testclock.New(time.Now())
	cfg := NewConfig(WithMaxBatchWait(time.Hour), WithMaxRetries(2), WithRetryDelay(100*time.Millisecond))
	f := NewFlusher(cfg, clock, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s1", false)})
	f.Flush()
	f.Wait()

	require.NotEmpty(t, rl.Logs())
	assert.Contains(t, rl.Logs()[0], "Batch flush failed, retrying")
	assert.Contains(t, rl.Logs()[0], "attempt=1")
	assert.Contains(t, rl.Logs()[0], "nextRetryInMs=100")

	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
	// s1 never received a terminal event, so it stays tracked.
	assert.True(t, tracker.Has(SpanKey{TraceID: "t", SpanID: "s1"}))
}

func TestScenario6_RetryExhaustion(t *testing.T) {
	rl := &log.RecordLogger{}
	old := log.UseLogger(rl)
	defer log.UseLogger(old)

	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	store.failBatchCreateTimes = 1000
	store.failErr = errors.New("unavailable")
	tracker := NewSpanTracker()
	clock := testclock.New(time.Now())
	cfg := NewConfig(WithMaxBatchWait(time.Hour), WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	f := NewFlusher(cfg, clock, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, f, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t", "s1", false)})
	f.Flush()
	f.Wait()

	log.Flush()
	lines := rl.Logs()
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "Batch flush failed after all retries, dropping batch")
	assert.Contains(t, last, "finalAttempt=2")
	assert.Contains(t, last, "droppedBatchSize=1")
}
