package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
)

func makeSpan(traceID, spanID string, isEvent bool) ExportedSpan {
	now := time.Now()
	return ExportedSpan{
		TraceID:   traceID,
		SpanID:    spanID,
		Name:      "op",
		StartedAt: now,
		EndedAt:   now,
		IsEvent:   isEvent,
	}
}

func TestEventRouterRealtimeLifecycle(t *testing.T) {
	store := newFakeStore(StrategyRealtime, StrategyRealtime)
	tracker := NewSpanTracker()
	router := NewEventRouter(StrategyRealtime, store, tracker, nil, metrics.NoOp{}, 5)

	key := SpanKey{TraceID: "t1", SpanID: "s1"}
	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t1", "s1", false)})
	assert.True(t, tracker.Has(key))

	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t1", "s1", false)})
	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t1", "s1", false)})
	assert.False(t, tracker.Has(key))

	creates, updates, _, _ := store.snapshotCounts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 2, updates)
}

func TestEventRouterRealtimeEventSpan(t *testing.T) {
	store := newFakeStore(StrategyRealtime, StrategyRealtime)
	tracker := NewSpanTracker()
	router := NewEventRouter(StrategyRealtime, store, tracker, nil, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t1", "s1", true)})

	creates, _, _, _ := store.snapshotCounts()
	assert.Equal(t, 1, creates)
	assert.False(t, tracker.Has(SpanKey{TraceID: "t1", SpanID: "s1"}))
}

func newTestFlusher(store ObservabilityStore, tracker *SpanTracker, strategy Strategy) *Flusher {
	cfg := NewConfig(WithMaxBatchWait(time.Hour), WithMaxBatchSize(1000), WithMaxBufferSize(10000))
	return NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, strategy)
}

func TestEventRouterBatchedHappyPath(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	flusher := newTestFlusher(store, tracker, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, flusher, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t1", "s1", false)})
	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t1", "s1", false)})
	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t1", "s1", false)})

	assert.Equal(t, 3, flusher.Buffer().TotalSize())

	flusher.Flush()

	_, _, batchCreates, batchUpdates := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
	assert.Equal(t, 1, batchUpdates)
}

func TestEventRouterBatchedOutOfOrderUpdateDropped(t *testing.T) {
	rl := &log.RecordLogger{}
	old := log.UseLogger(rl)
	defer log.UseLogger(old)

	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	flusher := newTestFlusher(store, tracker, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, flusher, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t1", "s1", false)})

	assert.Equal(t, 0, flusher.Buffer().TotalSize())
	assert.Equal(t, 1, flusher.Buffer().OutOfOrderCount())
	assert.NotEmpty(t, rl.Logs())
}

func TestEventRouterBatchedEventSpanSynthesizesCreate(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	flusher := newTestFlusher(store, tracker, StrategyBatchWithUpdates)
	router := NewEventRouter(StrategyBatchWithUpdates, store, tracker, flusher, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t1", "s1", true)})

	assert.Equal(t, 1, flusher.Buffer().TotalSize())
	flusher.Flush()
	creates, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 0, creates)
	assert.Equal(t, 1, batchCreates)
}

func TestEventRouterInsertOnlyOnlyBuffersEnded(t *testing.T) {
	store := newFakeStore(StrategyInsertOnly, StrategyInsertOnly)
	tracker := NewSpanTracker()
	flusher := newTestFlusher(store, tracker, StrategyInsertOnly)
	router := NewEventRouter(StrategyInsertOnly, store, tracker, flusher, metrics.NoOp{}, 5)

	router.Route(TracingEvent{Kind: SpanStarted, Span: makeSpan("t1", "s1", false)})
	router.Route(TracingEvent{Kind: SpanUpdated, Span: makeSpan("t1", "s1", false)})
	assert.Equal(t, 0, flusher.Buffer().TotalSize())

	router.Route(TracingEvent{Kind: SpanEnded, Span: makeSpan("t1", "s1", false)})
	assert.Equal(t, 1, flusher.Buffer().TotalSize())

	flusher.Flush()
	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
}
