package observability

import "time"

// Buffer is the in-memory batch state described by spec.md §3. It is not
// safe for concurrent use; callers (the EventRouter/Flusher pair) serialize
// access to it under a single lock, per spec.md §5.
type Buffer struct {
	creates    []CreateRecord
	updates    []SequencedUpdate
	insertOnly []CreateRecord

	seenSpans     map[SpanKey]bool
	spanSequences map[SpanKey]int
	completedSpans map[SpanKey]bool

	outOfOrderCount int
	firstEventTime  time.Time // zero value means unset
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.reset()
	return b
}

func (b *Buffer) reset() {
	b.creates = nil
	b.updates = nil
	b.insertOnly = nil
	b.seenSpans = make(map[SpanKey]bool)
	b.spanSequences = make(map[SpanKey]int)
	b.completedSpans = make(map[SpanKey]bool)
	b.outOfOrderCount = 0
	b.firstEventTime = time.Time{}
}

// Reset clears every collection and counter but never touches the
// SpanTracker — that is the Flusher's responsibility once it knows the
// batch's outcome (spec.md §4.4).
func (b *Buffer) Reset() {
	b.reset()
}

// TotalSize is |creates| + |updates| + |insertOnly| (invariant I5).
func (b *Buffer) TotalSize() int {
	return len(b.creates) + len(b.updates) + len(b.insertOnly)
}

// Empty reports whether the buffer holds no records at all.
func (b *Buffer) Empty() bool {
	return b.TotalSize() == 0
}

// OutOfOrderCount returns the number of dropped out-of-order events
// observed since the last reset.
func (b *Buffer) OutOfOrderCount() int {
	return b.outOfOrderCount
}

// FirstEventTime returns the wall-time the first event landed since the
// last reset, and whether one has landed at all.
func (b *Buffer) FirstEventTime() (time.Time, bool) {
	if b.firstEventTime.IsZero() {
		return time.Time{}, false
	}
	return b.firstEventTime, true
}

func (b *Buffer) markFirstEvent(now time.Time) {
	if b.firstEventTime.IsZero() {
		b.firstEventTime = now
	}
}

// HasSeenCreate reports whether this generation's batch already contains a
// create for key.
func (b *Buffer) HasSeenCreate(key SpanKey) bool {
	return b.seenSpans[key]
}

// AddCreate appends a create record, marks key as seen in this generation,
// and records the first-event timestamp if the buffer was empty.
func (b *Buffer) AddCreate(key SpanKey, rec CreateRecord, now time.Time) {
	b.markFirstEvent(now)
	b.creates = append(b.creates, rec)
	b.seenSpans[key] = true
	if _, ok := b.spanSequences[key]; !ok {
		b.spanSequences[key] = 1
	}
}

// NextSequence returns and consumes the next monotone sequence number for
// key, starting at 1 (invariant I2).
func (b *Buffer) NextSequence(key SpanKey) int {
	n := b.spanSequences[key]
	if n == 0 {
		n = 1
	}
	b.spanSequences[key] = n + 1
	return n
}

// AddUpdate appends an update with the next sequence number for key.
func (b *Buffer) AddUpdate(key SpanKey, update UpdateRecord, now time.Time) int {
	b.markFirstEvent(now)
	seq := b.NextSequence(key)
	b.updates = append(b.updates, SequencedUpdate{SpanKey: key, Update: update, SequenceNumber: seq})
	return seq
}

// AddInsertOnly appends a create record to the insert-only sequence.
func (b *Buffer) AddInsertOnly(key SpanKey, rec CreateRecord, now time.Time) {
	b.markFirstEvent(now)
	b.insertOnly = append(b.insertOnly, rec)
	b.completedSpans[key] = true
}

// MarkCompleted records that key received a terminal event in this batch
// (invariant I3: completedSpans ⊆ seenSpans ∪ SpanTracker, enforced by
// callers only marking completion for keys they've already validated).
func (b *Buffer) MarkCompleted(key SpanKey) {
	b.completedSpans[key] = true
}

// IncrementOutOfOrder bumps the out-of-order counter for a dropped event.
func (b *Buffer) IncrementOutOfOrder() {
	b.outOfOrderCount++
}

// Snapshot is an immutable handoff copy of a Buffer generation, taken at
// flush time. Per DESIGN NOTES §9, copying references (slices/maps) is
// sufficient because CreateRecord/UpdateRecord are never mutated after
// construction.
type Snapshot struct {
	Creates        []CreateRecord
	Updates        []SequencedUpdate
	InsertOnly     []CreateRecord
	CompletedSpans map[SpanKey]bool
	OutOfOrder     int
	Reason         FlushReason
}

// TotalSize mirrors Buffer.TotalSize for the frozen snapshot.
func (s Snapshot) TotalSize() int {
	return len(s.Creates) + len(s.Updates) + len(s.InsertOnly)
}

// snapshot freezes the buffer's collections into a Snapshot. The caller
// must call Reset immediately after, before releasing the lock, so that
// new events land in a fresh generation (the critical handoff point
// described in spec.md §4.3 step 4-5).
func (b *Buffer) snapshot(reason FlushReason) Snapshot {
	return Snapshot{
		Creates:        b.creates,
		Updates:        b.updates,
		InsertOnly:     b.insertOnly,
		CompletedSpans: b.completedSpans,
		OutOfOrder:     b.outOfOrderCount,
		Reason:         reason,
	}
}
