// Command spanforge-smoke drives an Exporter against a real (or dummy)
// storehttp endpoint with synthetic spans, for manually confirming a
// deployment before wiring it into a real producer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/observability"
	"github.com/spanforge/exporter-go/storehttp"
)

var (
	endpoint = flag.String("endpoint", "", "base URL of the spans store (empty disables network calls)")
	count    = flag.Int("count", 100, "number of synthetic spans to export")
	strategy = flag.String("strategy", "auto", "realtime, batch, insert-only, or auto")
	debug    = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()
	if *debug {
		log.SetLevel(log.LevelDebug)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "spanforge-smoke:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := observability.NewConfig(observability.WithStrategy(parseStrategy(*strategy)))
	exp := observability.NewExporter(cfg, nil, nil)

	var store observability.ObservabilityStore
	if *endpoint != "" {
		store = storehttp.New(*endpoint)
	} else {
		store = discardStore{}
	}

	ctx := context.Background()
	if err := exp.Init(ctx, store); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Printf("exporter ready, state=%s\n", exp.State())

	traceID := uuid.NewString()
	for i := 0; i < *count; i++ {
		spanID := uuid.NewString()
		now := time.Now()
		exp.ExportEvent(observability.TracingEvent{
			Kind: observability.SpanStarted,
			Span: observability.ExportedSpan{TraceID: traceID, SpanID: spanID, Name: "smoke.op", StartedAt: now},
		})
		exp.ExportEvent(observability.TracingEvent{
			Kind: observability.SpanEnded,
			Span: observability.ExportedSpan{TraceID: traceID, SpanID: spanID, Name: "smoke.op", StartedAt: now, EndedAt: now.Add(time.Millisecond)},
		})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := exp.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Printf("exported %d spans, tracker size=%d\n", *count, exp.Tracker().Len())
	return nil
}

func parseStrategy(s string) observability.Strategy {
	switch s {
	case "realtime":
		return observability.StrategyRealtime
	case "batch":
		return observability.StrategyBatchWithUpdates
	case "insert-only":
		return observability.StrategyInsertOnly
	default:
		return observability.StrategyAuto
	}
}

// discardStore lets the smoke binary run with no real backend configured,
// to exercise the exporter's own bookkeeping without a network dependency.
type discardStore struct{}

func (discardStore) TracingStrategy() observability.TracingStrategyHint {
	return observability.TracingStrategyHint{
		Preferred: observability.StrategyBatchWithUpdates,
		Supported: map[observability.Strategy]bool{
			observability.StrategyRealtime:         true,
			observability.StrategyBatchWithUpdates: true,
			observability.StrategyInsertOnly:       true,
		},
	}
}

func (discardStore) CreateSpan(context.Context, observability.CreateRecord) error { return nil }
func (discardStore) UpdateSpan(context.Context, observability.SpanKey, observability.UpdateRecord) error {
	return nil
}
func (discardStore) BatchCreateSpans(context.Context, []observability.CreateRecord) error { return nil }
func (discardStore) BatchUpdateSpans(context.Context, []observability.SequencedUpdate) error {
	return nil
}

var _ observability.ObservabilityStore = discardStore{}
