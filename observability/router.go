package observability

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
)

// EventRouter consumes one TracingEvent at a time and dispatches it per the
// resolved Strategy (spec.md §4.2). For realtime it calls the store
// directly; for the buffered strategies it mutates the Flusher's Buffer and
// lets the Flusher decide whether to flush.
type EventRouter struct {
	strategy Strategy
	store    ObservabilityStore
	tracker  *SpanTracker
	flusher  *Flusher
	metrics  metrics.Client
	clock    Clock

	// oooLimiter throttles the *log line* for out-of-order events; the
	// counters (Buffer.outOfOrderCount and the oooCount field below, which
	// flushes do not reset) are never throttled, only the warning emitted to
	// the log. Only the batch-with-updates path detects out-of-order events.
	oooLimiter *rate.Limiter
	oooCount   int
}

// NewEventRouter builds a router for the given resolved strategy. burst
// controls how many out-of-order warning lines the router lets through at
// once before throttling them to one per second (Config.OutOfOrderWarnBurst);
// values <= 0 fall back to 1 so the limiter is never constructed with a
// non-positive burst.
func NewEventRouter(strategy Strategy, store ObservabilityStore, tracker *SpanTracker, flusher *Flusher, m metrics.Client, burst int) *EventRouter {
	if m == nil {
		m = metrics.NoOp{}
	}
	if burst <= 0 {
		burst = 1
	}
	return &EventRouter{
		strategy:   strategy,
		store:      store,
		tracker:    tracker,
		flusher:    flusher,
		metrics:    m,
		clock:      realClock{},
		oooLimiter: rate.NewLimiter(rate.Every(time.Second), burst),
	}
}

// Route dispatches a single event per the router's resolved strategy.
func (r *EventRouter) Route(event TracingEvent) {
	switch r.strategy {
	case StrategyRealtime:
		r.routeRealtime(event)
	case StrategyInsertOnly:
		r.routeInsertOnly(event)
	default: // StrategyBatchWithUpdates
		r.routeBatched(event)
	}
}

func (r *EventRouter) warnOutOfOrder(event TracingEvent) {
	r.oooCount++
	r.metrics.Count(metrics.OutOfOrder, 1, nil, 1)
	if r.oooLimiter.Allow() {
		log.Warn("out-of-order event dropped: spanId=%s traceId=%s eventType=%s", event.Span.SpanID, event.Span.TraceID, event.Kind)
	}
}

// reportTrackerSize gauges the SpanTracker's current size. Called after
// every Add/Remove the router itself performs; Flusher reports it again
// after PruneCompleted, since that mutation happens on its own goroutine.
func (r *EventRouter) reportTrackerSize() {
	r.metrics.Gauge(metrics.TrackerSize, float64(r.tracker.Len()), nil, 1)
}

// --- realtime ---

func (r *EventRouter) routeRealtime(event TracingEvent) {
	ctx := context.Background()
	key := event.Key()
	span := event.Span

	if span.IsEvent {
		if event.Kind != SpanEnded {
			log.Warn("unexpected %s on event span spanId=%s: only SpanEnded is valid", event.Kind, span.SpanID)
			return
		}
		if err := r.store.CreateSpan(ctx, newCreateRecord(span, r.metrics)); err != nil {
			log.Error("realtime create failed: spanId=%s error=%v", span.SpanID, err)
			return
		}
		return
	}

	switch event.Kind {
	case SpanStarted:
		if err := r.store.CreateSpan(ctx, newCreateRecord(span, r.metrics)); err != nil {
			log.Error("realtime create failed: spanId=%s error=%v", span.SpanID, err)
			return
		}
		r.tracker.Add(key)
		r.reportTrackerSize()
	case SpanUpdated:
		if err := r.store.UpdateSpan(ctx, key, newUpdateRecord(span, r.metrics)); err != nil {
			log.Error("realtime update failed: spanId=%s error=%v", span.SpanID, err)
		}
	case SpanEnded:
		if err := r.store.UpdateSpan(ctx, key, newUpdateRecord(span, r.metrics)); err != nil {
			log.Error("realtime update failed: spanId=%s error=%v", span.SpanID, err)
		}
		r.tracker.Remove(key)
		r.reportTrackerSize()
	}
}

// --- batch-with-updates ---

func (r *EventRouter) routeBatched(event TracingEvent) {
	key := event.Key()
	span := event.Span

	r.flusher.WithBuffer(func(buf *Buffer, now time.Time) {
		switch {
		case span.IsEvent && event.Kind == SpanEnded:
			// Event spans never get an explicit create; synthesize one,
			// whether or not a tracker entry happens to already exist.
			buf.AddCreate(key, newCreateRecord(span, r.metrics), now)
			r.tracker.Add(key)
			r.reportTrackerSize()
			buf.MarkCompleted(key)

		case event.Kind == SpanStarted && !span.IsEvent:
			buf.AddCreate(key, newCreateRecord(span, r.metrics), now)
			r.tracker.Add(key)
			r.reportTrackerSize()

		case event.Kind == SpanUpdated && !span.IsEvent:
			if r.tracker.Has(key) {
				buf.AddUpdate(key, newUpdateRecord(span, r.metrics), now)
			} else {
				buf.IncrementOutOfOrder()
				r.warnOutOfOrder(event)
			}

		case event.Kind == SpanEnded && !span.IsEvent:
			if r.tracker.Has(key) {
				buf.AddUpdate(key, newUpdateRecord(span, r.metrics), now)
				buf.MarkCompleted(key)
			} else {
				buf.IncrementOutOfOrder()
				r.warnOutOfOrder(event)
			}

		default:
			log.Warn("unexpected %s on event span spanId=%s", event.Kind, span.SpanID)
		}
	})
}

// --- insert-only ---

func (r *EventRouter) routeInsertOnly(event TracingEvent) {
	if event.Kind != SpanEnded {
		// SpanStarted/SpanUpdated are discarded silently under insert-only.
		return
	}
	key := event.Key()
	r.flusher.WithBuffer(func(buf *Buffer, now time.Time) {
		buf.AddInsertOnly(key, newCreateRecord(event.Span, r.metrics), now)
	})
}

// --- record construction ---

func newCreateRecord(span ExportedSpan, m metrics.Client) CreateRecord {
	return CreateRecord{
		TraceID:           span.TraceID,
		SpanID:            span.SpanID,
		ParentID:          span.ParentID,
		Name:              span.Name,
		Type:              span.Type,
		StartedAtUnixNano: span.StartedAt.UnixNano(),
		EndedAtUnixNano:   span.EndedAt.UnixNano(),
		Attributes:        serializeAttributes(span, m),
		Metadata:          span.Metadata,
		Tags:              span.Tags,
		Input:             span.Input,
		Output:            span.Output,
		Error:             span.Error,
		IsEvent:           span.IsEvent,
	}
}

func newUpdateRecord(span ExportedSpan, m metrics.Client) UpdateRecord {
	name := span.Name
	var endedAt *int64
	if !span.EndedAt.IsZero() {
		n := span.EndedAt.UnixNano()
		endedAt = &n
	}
	return UpdateRecord{
		Name:       &name,
		Attributes: serializeAttributes(span, m),
		Metadata:   &span.Metadata,
		Input:      span.Input,
		Output:     span.Output,
		Error:      span.Error,
		EndedAt:    endedAt,
	}
}
