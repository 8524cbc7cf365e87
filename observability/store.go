package observability

import "context"

// Strategy is how a store wants span writes delivered.
type Strategy int

const (
	// StrategyAuto defers to the store's preferred strategy. It is only
	// ever a user preference value, never a resolved strategy.
	StrategyAuto Strategy = iota
	// StrategyRealtime issues one store call per event.
	StrategyRealtime
	// StrategyBatchWithUpdates buffers creates and ordered updates,
	// flushing both on trigger.
	StrategyBatchWithUpdates
	// StrategyInsertOnly buffers only completed spans as single creates.
	StrategyInsertOnly
)

// String renders the strategy the way it appears in log lines and config.
func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyRealtime:
		return "realtime"
	case StrategyBatchWithUpdates:
		return "batch-with-updates"
	case StrategyInsertOnly:
		return "insert-only"
	default:
		return "unknown"
	}
}

// TracingStrategyHint is the capability a store advertises during
// negotiation: the strategy it would pick by default, and the full set it
// is able to support.
type TracingStrategyHint struct {
	Preferred Strategy
	Supported map[Strategy]bool
}

// Supports reports whether the hint lists s as supported.
func (h TracingStrategyHint) Supports(s Strategy) bool {
	return h.Supported[s]
}

// CreateRecord is what the store persists for a new (or newly completed
// event) span.
type CreateRecord struct {
	TraceID  string
	SpanID   string
	ParentID string

	Name string
	Type string

	StartedAtUnixNano int64
	EndedAtUnixNano   int64

	Attributes any // output of serializeAttributes; nil on failure
	Metadata   SpanMetadata
	Tags       []string

	Input  any
	Output any
	Error  *SpanError

	IsEvent bool
}

// UpdateRecord is the mutable subset of fields the store applies to an
// already-created span.
type UpdateRecord struct {
	Name       *string
	Attributes any
	Metadata   *SpanMetadata
	Input      any
	Output     any
	Error      *SpanError
	EndedAt    *int64 // unix nanoseconds
}

// SequencedUpdate pairs an UpdateRecord with the per-span sequence number
// assigned when it was buffered, and the key it applies to.
type SequencedUpdate struct {
	SpanKey
	Update         UpdateRecord
	SequenceNumber int
}

// ObservabilityStore is the minimum contract a storage backend must satisfy.
// All methods are idempotent under "repeat after an error is safe"; batch
// methods are applied atomically by the store or reported as a single
// error.
type ObservabilityStore interface {
	// TracingStrategy advertises which write pattern(s) this store supports.
	TracingStrategy() TracingStrategyHint

	CreateSpan(ctx context.Context, rec CreateRecord) error
	UpdateSpan(ctx context.Context, key SpanKey, update UpdateRecord) error
	BatchCreateSpans(ctx context.Context, records []CreateRecord) error
	BatchUpdateSpans(ctx context.Context, records []SequencedUpdate) error
}
