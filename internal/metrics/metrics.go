// Package metrics wires the exporter's counters and gauges to a statsd
// client. It is deliberately thin: one small interface subset, one no-op
// implementation, and the literal metric names the rest of the module
// emits.
package metrics

import "github.com/DataDog/datadog-go/v5/statsd"

// Metric names emitted by the observability package. Kept here, not
// scattered across callers, so a dashboard author has one place to look.
const (
	FlushBatches   = "spanforge.exporter.flush.batches"
	FlushSpans     = "spanforge.exporter.flush.spans"
	FlushRetries   = "spanforge.exporter.flush.retries"
	FlushDropped   = "spanforge.exporter.flush.dropped"
	OutOfOrder     = "spanforge.exporter.out_of_order"
	BufferSize     = "spanforge.exporter.buffer.size"
	TrackerSize    = "spanforge.exporter.tracker.size"
	SerializeError = "spanforge.exporter.serialize.errors"
)

// Client is the subset of statsd.ClientInterface the exporter needs. Using
// a narrow interface instead of *statsd.Client lets tests substitute
// internal/statsdtest.TestStatsdClient.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
}

// NoOp discards every metric; used when the caller doesn't configure a
// statsd client.
type NoOp struct{}

// Gauge implements Client.
func (NoOp) Gauge(string, float64, []string, float64) error { return nil }

// Count implements Client.
func (NoOp) Count(string, int64, []string, float64) error { return nil }

// Incr implements Client.
func (NoOp) Incr(string, []string, float64) error { return nil }

var _ Client = NoOp{}
var _ Client = (*statsd.Client)(nil)
