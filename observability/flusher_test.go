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

func TestFlusherTriggersOnSize(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchSize(2), WithMaxBufferSize(100), WithMaxBatchWait(time.Hour))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	now := time.Now()
	f.WithBuffer(func(buf *Buffer, t time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s1"}, CreateRecord{SpanID: "s1"}, now)
	})
	f.WithBuffer(func(buf *Buffer, t time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s2"}, CreateRecord{SpanID: "s2"}, now)
	})

	f.Wait()
	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
	assert.Equal(t, 0, f.Buffer().TotalSize())
}

func TestFlusherTriggersOnOverflowBeforeSize(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchSize(1000), WithMaxBufferSize(2), WithMaxBatchWait(time.Hour))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	now := time.Now()
	f.WithBuffer(func(buf *Buffer, t time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s1"}, CreateRecord{SpanID: "s1"}, now)
	})
	f.WithBuffer(func(buf *Buffer, t time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s2"}, CreateRecord{SpanID: "s2"}, now)
	})

	f.Wait()
	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
}

func TestFlusherTriggersOnTime(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchSize(1000), WithMaxBufferSize(1000), WithMaxBatchWait(20*time.Millisecond))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	f.WithBuffer(func(buf *Buffer, now time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s1"}, CreateRecord{SpanID: "s1"}, now)
	})

	assert.Eventually(t, func() bool {
		_, _, batchCreates, _ := store.snapshotCounts()
		return batchCreates == 1
	}, time.Second, 5*time.Millisecond)
}

func TestFlusherManualFlush(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	tracker := NewSpanTracker()
	cfg := NewConfig(WithMaxBatchWait(time.Hour))
	f := NewFlusher(cfg, realClock{}, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	f.WithBuffer(func(buf *Buffer, now time.Time) {
		buf.AddCreate(SpanKey{TraceID: "t1", SpanID: "s1"}, CreateRecord{SpanID: "s1"}, now)
	})
	f.Flush()

	_, _, batchCreates, _ := store.snapshotCounts()
	assert.Equal(t, 1, batchCreates)
}

func TestFlusherRetriesThenSucceeds(t *testing.T) {
	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	store.failBatchUpdateTimes = 2
	store.failErr = errors.New("store unavailable")
	tracker := NewSpanTracker()
	clock := testclock.New(time.Now())
	cfg := NewConfig(WithMaxBatchWait(time.Hour), WithMaxRetries(4), WithRetryDelay(time.Millisecond))
	f := NewFlusher(cfg, clock, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	key := SpanKey{TraceID: "t1", SpanID: "s1"}
	tracker.Add(key)
	f.WithBuffer(func(buf *Buffer, now time.Time) {
		buf.AddUpdate(key, UpdateRecord{}, now)
		buf.MarkCompleted(key)
	})

	f.Flush()
	f.Wait()

	_, _, _, batchUpdates := store.snapshotCounts()
	assert.Equal(t, 1, batchUpdates)
	assert.False(t, tracker.Has(key))
}

func TestFlusherDropsAfterExhaustingRetries(t *testing.T) {
	rl := &log.RecordLogger{}
	old := log.UseLogger(rl)
	defer log.UseLogger(old)

	store := newFakeStore(StrategyBatchWithUpdates, StrategyBatchWithUpdates)
	store.failBatchUpdateTimes = 1000
	store.failErr = errors.New("store unavailable")
	tracker := NewSpanTracker()
	clock := testclock.New(time.Now())
	cfg := NewConfig(WithMaxBatchWait(time.Hour), WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	f := NewFlusher(cfg, clock, store, tracker, metrics.NoOp{}, StrategyBatchWithUpdates)

	key := SpanKey{TraceID: "t1", SpanID: "s1"}
	tracker.Add(key)
	f.WithBuffer(func(buf *Buffer, now time.Time) {
		buf.AddUpdate(key, UpdateRecord{}, now)
		buf.MarkCompleted(key)
	})

	f.Flush()
	f.Wait()

	assert.False(t, tracker.Has(key))
	log.Flush()
	require.NotEmpty(t, rl.Logs())
	assert.Contains(t, rl.Logs()[len(rl.Logs())-1], "dropping batch")
}
