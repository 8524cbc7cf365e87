package observability

import "time"

// SpanKey identifies a span uniquely within the lifetime of any process
// that has observed it.
type SpanKey struct {
	TraceID string
	SpanID  string
}

// EventKind tags a TracingEvent's variant.
type EventKind int

const (
	// SpanStarted marks the beginning of a span's lifetime.
	SpanStarted EventKind = iota
	// SpanUpdated carries a mutation to an already-started span.
	SpanUpdated
	// SpanEnded marks a span's (or event span's) termination.
	SpanEnded
)

// String renders the event kind the way it appears in log lines.
func (k EventKind) String() string {
	switch k {
	case SpanStarted:
		return "SpanStarted"
	case SpanUpdated:
		return "SpanUpdated"
	case SpanEnded:
		return "SpanEnded"
	default:
		return "Unknown"
	}
}

// ExportedSpan is the snapshot carried by every TracingEvent.
type ExportedSpan struct {
	TraceID  string
	SpanID   string
	ParentID string

	Name string
	Type string

	StartedAt time.Time
	EndedAt   time.Time

	Attributes map[string]any
	Metadata   SpanMetadata
	Tags       []string

	Input  any
	Output any
	Error  *SpanError

	// IsEvent marks a zero-duration event span: it only ever emits a single
	// SpanEnded, never SpanStarted/SpanUpdated.
	IsEvent bool
}

// SpanMetadata carries the correlation fields lifted into CreateRecord.
type SpanMetadata struct {
	UserID         string
	OrganizationID string
	ResourceID     string
	RunID          string
	SessionID      string
	ThreadID       string
	RequestID      string
	Environment    string
	Source         string
	ServiceName    string
	Scope          string
}

// SpanError carries error information attached to a span.
type SpanError struct {
	Message string
	Type    string
	Stack   string
}

// TracingEvent is the tagged variant the producer feeds to Exporter.ExportEvent.
type TracingEvent struct {
	Kind EventKind
	Span ExportedSpan
}

// Key returns the SpanKey the event refers to.
func (e TracingEvent) Key() SpanKey {
	return SpanKey{TraceID: e.Span.TraceID, SpanID: e.Span.SpanID}
}
