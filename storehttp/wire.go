// Package storehttp is a reference ObservabilityStore backed by an HTTP
// endpoint. Batches are encoded with tinylib/msgp rather than JSON: fixed
// array-header encoding keeps the wire format compact and keeps field order,
// not field names, as the compatibility contract (mirroring the teacher's
// own agent payload encoding).
package storehttp

import (
	"encoding/json"

	"github.com/spanforge/exporter-go/observability"
)

// wireMetadata mirrors observability.SpanMetadata as a fixed-order array of
// 11 strings.
type wireMetadata struct {
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

func newWireMetadata(m observability.SpanMetadata) wireMetadata {
	return wireMetadata{
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		ResourceID:     m.ResourceID,
		RunID:          m.RunID,
		SessionID:      m.SessionID,
		ThreadID:       m.ThreadID,
		RequestID:      m.RequestID,
		Environment:    m.Environment,
		Source:         m.Source,
		ServiceName:    m.ServiceName,
		Scope:          m.Scope,
	}
}

func (m wireMetadata) toSpanMetadata() observability.SpanMetadata {
	return observability.SpanMetadata{
		UserID:         m.UserID,
		OrganizationID: m.OrganizationID,
		ResourceID:     m.ResourceID,
		RunID:          m.RunID,
		SessionID:      m.SessionID,
		ThreadID:       m.ThreadID,
		RequestID:      m.RequestID,
		Environment:    m.Environment,
		Source:         m.Source,
		ServiceName:    m.ServiceName,
		Scope:          m.Scope,
	}
}

// wireError mirrors observability.SpanError. Empty Message+Type+Stack
// means "no error attached".
type wireError struct {
	Message string
	Type    string
	Stack   string
}

func newWireError(e *observability.SpanError) wireError {
	if e == nil {
		return wireError{}
	}
	return wireError{Message: e.Message, Type: e.Type, Stack: e.Stack}
}

func (e wireError) toSpanError() *observability.SpanError {
	if e.Message == "" && e.Type == "" && e.Stack == "" {
		return nil
	}
	return &observability.SpanError{Message: e.Message, Type: e.Type, Stack: e.Stack}
}

// createWire is the on-the-wire shape of a CreateRecord. Attributes/Input/
// Output are collapsed into JSON-encoded strings rather than given their
// own msgp encoding: they're arbitrary `any` payloads, and round-tripping
// them through encoding/json keeps the array shape fixed regardless of
// what a caller puts in them.
type createWire struct {
	TraceID           string
	SpanID            string
	ParentID          string
	Name              string
	Type              string
	StartedAtUnixNano int64
	EndedAtUnixNano   int64
	AttributesJSON    string
	Metadata          wireMetadata
	Tags              []string
	InputJSON         string
	OutputJSON        string
	Error             wireError
	IsEvent           bool
}

func newCreateWire(r observability.CreateRecord) (createWire, error) {
	attrs, err := marshalAny(r.Attributes)
	if err != nil {
		return createWire{}, err
	}
	input, err := marshalAny(r.Input)
	if err != nil {
		return createWire{}, err
	}
	output, err := marshalAny(r.Output)
	if err != nil {
		return createWire{}, err
	}
	return createWire{
		TraceID:           r.TraceID,
		SpanID:            r.SpanID,
		ParentID:          r.ParentID,
		Name:              r.Name,
		Type:              r.Type,
		StartedAtUnixNano: r.StartedAtUnixNano,
		EndedAtUnixNano:   r.EndedAtUnixNano,
		AttributesJSON:    attrs,
		Metadata:          newWireMetadata(r.Metadata),
		Tags:              r.Tags,
		InputJSON:         input,
		OutputJSON:        output,
		Error:             newWireError(r.Error),
		IsEvent:           r.IsEvent,
	}, nil
}

func (w createWire) toCreateRecord() (observability.CreateRecord, error) {
	attrs, err := unmarshalAny(w.AttributesJSON)
	if err != nil {
		return observability.CreateRecord{}, err
	}
	input, err := unmarshalAny(w.InputJSON)
	if err != nil {
		return observability.CreateRecord{}, err
	}
	output, err := unmarshalAny(w.OutputJSON)
	if err != nil {
		return observability.CreateRecord{}, err
	}
	return observability.CreateRecord{
		TraceID:           w.TraceID,
		SpanID:            w.SpanID,
		ParentID:          w.ParentID,
		Name:              w.Name,
		Type:              w.Type,
		StartedAtUnixNano: w.StartedAtUnixNano,
		EndedAtUnixNano:   w.EndedAtUnixNano,
		Attributes:        attrs,
		Metadata:          w.Metadata.toSpanMetadata(),
		Tags:              w.Tags,
		Input:             input,
		Output:            output,
		Error:             w.Error.toSpanError(),
		IsEvent:           w.IsEvent,
	}, nil
}

// updateWire is the on-the-wire shape of a SequencedUpdate. Optional fields
// carry an explicit "set" flag alongside their value since msgp's array
// encoding has no notion of a missing field.
type updateWire struct {
	TraceID        string
	SpanID         string
	SequenceNumber int

	NameSet bool
	Name    string

	AttributesSet  bool
	AttributesJSON string

	MetadataSet bool
	Metadata    wireMetadata

	InputJSON  string
	OutputJSON string
	Error      wireError

	EndedAtSet      bool
	EndedAtUnixNano int64
}

func newUpdateWire(u observability.SequencedUpdate) (updateWire, error) {
	attrs, err := marshalAny(u.Update.Attributes)
	if err != nil {
		return updateWire{}, err
	}
	input, err := marshalAny(u.Update.Input)
	if err != nil {
		return updateWire{}, err
	}
	output, err := marshalAny(u.Update.Output)
	if err != nil {
		return updateWire{}, err
	}
	w := updateWire{
		TraceID:        u.TraceID,
		SpanID:         u.SpanID,
		SequenceNumber: u.SequenceNumber,
		AttributesSet:  u.Update.Attributes != nil,
		AttributesJSON: attrs,
		InputJSON:      input,
		OutputJSON:     output,
		Error:          newWireError(u.Update.Error),
	}
	if u.Update.Name != nil {
		w.NameSet = true
		w.Name = *u.Update.Name
	}
	if u.Update.Metadata != nil {
		w.MetadataSet = true
		w.Metadata = newWireMetadata(*u.Update.Metadata)
	}
	if u.Update.EndedAt != nil {
		w.EndedAtSet = true
		w.EndedAtUnixNano = *u.Update.EndedAt
	}
	return w, nil
}

func (w updateWire) toSequencedUpdate() (observability.SequencedUpdate, error) {
	attrs, err := unmarshalAny(w.AttributesJSON)
	if err != nil {
		return observability.SequencedUpdate{}, err
	}
	input, err := unmarshalAny(w.InputJSON)
	if err != nil {
		return observability.SequencedUpdate{}, err
	}
	output, err := unmarshalAny(w.OutputJSON)
	if err != nil {
		return observability.SequencedUpdate{}, err
	}
	update := observability.UpdateRecord{
		Input:  input,
		Output: output,
		Error:  w.Error.toSpanError(),
	}
	if w.AttributesSet {
		update.Attributes = attrs
	}
	if w.NameSet {
		name := w.Name
		update.Name = &name
	}
	if w.MetadataSet {
		meta := w.Metadata.toSpanMetadata()
		update.Metadata = &meta
	}
	if w.EndedAtSet {
		ended := w.EndedAtUnixNano
		update.EndedAt = &ended
	}
	return observability.SequencedUpdate{
		SpanKey:        observability.SpanKey{TraceID: w.TraceID, SpanID: w.SpanID},
		Update:         update,
		SequenceNumber: w.SequenceNumber,
	}, nil
}

// batchCreateWire is the top-level payload for a BatchCreateSpans call.
type batchCreateWire struct {
	BatchID string
	Records []createWire
}

// batchUpdateWire is the top-level payload for a BatchUpdateSpans call.
type batchUpdateWire struct {
	BatchID string
	Records []updateWire
}

func marshalAny(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalAny(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
