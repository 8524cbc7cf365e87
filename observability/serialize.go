package observability

import (
	"encoding/json"
	"time"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
)

// serializeAttributes deep-copies a span's attributes into the JSON-ready
// value the store records verbatim (spec.md §4.6): time.Time values render
// as RFC3339 (ISO-8601) UTC strings; anything else that fails to
// round-trip through JSON (a channel, a func, a cyclic map) yields a nil
// Attributes with a warning carrying (spanId, spanType, error) rather than
// aborting the whole event — losing one field beats losing the span. m may
// be nil in tests that don't care about metrics; production callers always
// pass the router's configured client.
func serializeAttributes(span ExportedSpan, m metrics.Client) any {
	if m == nil {
		m = metrics.NoOp{}
	}
	if len(span.Attributes) == 0 {
		return nil
	}

	normalized := make(map[string]any, len(span.Attributes))
	for k, v := range span.Attributes {
		if ts, ok := v.(time.Time); ok {
			normalized[k] = ts.UTC().Format(time.RFC3339)
			continue
		}
		normalized[k] = v
	}

	// Round-trip through json.Marshal/Unmarshal rather than returning the
	// map directly: it rejects non-serializable values up front and hands
	// the store a plain map[string]any it can re-encode without surprises.
	raw, err := json.Marshal(normalized)
	if err != nil {
		log.Warn("dropping unserializable attributes: spanId=%s spanType=%s error=%v", span.SpanID, span.Type, err)
		m.Incr(metrics.SerializeError, nil, 1)
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn("dropping unserializable attributes: spanId=%s spanType=%s error=%v", span.SpanID, span.Type, err)
		m.Incr(metrics.SerializeError, nil, 1)
		return nil
	}
	return out
}
