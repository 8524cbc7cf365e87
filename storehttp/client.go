package storehttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tinylib/msgp/msgp"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/observability"
)

const (
	headerBatchID     = "X-Spanforge-Batch-Id"
	contentTypeMsgp   = "application/msgpack"
	defaultHTTPClient = 10 * time.Second
)

// Store is a reference observability.ObservabilityStore backed by an HTTP
// endpoint speaking the msgp wire format in wire.go. It does not itself
// retry: retry and backoff are the Flusher's job (spec.md §4.3); Store's
// contract is simply "return a non-nil error if the batch definitely did
// not land".
type Store struct {
	baseURL string
	client  *http.Client
	hint    observability.TracingStrategyHint
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient overrides the default http.Client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithStrategyHint overrides the default advertised hint (batch-with-updates
// preferred, realtime and insert-only also supported).
func WithStrategyHint(hint observability.TracingStrategyHint) Option {
	return func(s *Store) { s.hint = hint }
}

// New builds a Store posting batches to baseURL + "/v1/spans/create" and
// "/v1/spans/update".
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPClient},
		hint: observability.TracingStrategyHint{
			Preferred: observability.StrategyBatchWithUpdates,
			Supported: map[observability.Strategy]bool{
				observability.StrategyRealtime:         true,
				observability.StrategyBatchWithUpdates: true,
				observability.StrategyInsertOnly:       true,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TracingStrategy implements observability.ObservabilityStore.
func (s *Store) TracingStrategy() observability.TracingStrategyHint {
	return s.hint
}

// CreateSpan implements observability.ObservabilityStore via a single-record
// batch create call.
func (s *Store) CreateSpan(ctx context.Context, rec observability.CreateRecord) error {
	return s.BatchCreateSpans(ctx, []observability.CreateRecord{rec})
}

// UpdateSpan implements observability.ObservabilityStore via a single-record
// batch update call.
func (s *Store) UpdateSpan(ctx context.Context, key observability.SpanKey, update observability.UpdateRecord) error {
	return s.BatchUpdateSpans(ctx, []observability.SequencedUpdate{{SpanKey: key, Update: update}})
}

// BatchCreateSpans implements observability.ObservabilityStore.
func (s *Store) BatchCreateSpans(ctx context.Context, records []observability.CreateRecord) error {
	if len(records) == 0 {
		return nil
	}
	wires := make([]createWire, len(records))
	for i, r := range records {
		w, err := newCreateWire(r)
		if err != nil {
			return fmt.Errorf("storehttp: encoding create record %d: %w", i, err)
		}
		wires[i] = w
	}
	batchID := newBatchID()
	payload := batchCreateWire{BatchID: batchID, Records: wires}
	return s.postMsgp(ctx, "/v1/spans/create", batchID, payload)
}

// BatchUpdateSpans implements observability.ObservabilityStore.
func (s *Store) BatchUpdateSpans(ctx context.Context, records []observability.SequencedUpdate) error {
	if len(records) == 0 {
		return nil
	}
	wires := make([]updateWire, len(records))
	for i, u := range records {
		w, err := newUpdateWire(u)
		if err != nil {
			return fmt.Errorf("storehttp: encoding update record %d: %w", i, err)
		}
		wires[i] = w
	}
	batchID := newBatchID()
	payload := batchUpdateWire{BatchID: batchID, Records: wires}
	return s.postMsgp(ctx, "/v1/spans/update", batchID, payload)
}

func (s *Store) postMsgp(ctx context.Context, path, batchID string, payload msgp.Encodable) error {
	var buf bytes.Buffer
	if err := msgp.Encode(&buf, payload); err != nil {
		return fmt.Errorf("storehttp: encoding batch %s: %w", batchID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("storehttp: building request for batch %s: %w", batchID, err)
	}
	req.Header.Set("Content-Type", contentTypeMsgp)
	req.Header.Set(headerBatchID, batchID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("storehttp: posting batch %s: %w", batchID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Debug("storehttp: batch %s rejected status=%d body=%q", batchID, resp.StatusCode, body)
		return fmt.Errorf("storehttp: batch %s: unexpected status %d", batchID, resp.StatusCode)
	}
	return nil
}

func newBatchID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		// Time-based UUID generation only fails if the host clock/MAC
		// sequence can't be read; a random UUID is a fine fallback for a
		// correlation id that only needs to be unique, not chronological.
		return uuid.NewString()
	}
	return id.String()
}

var _ observability.ObservabilityStore = (*Store)(nil)
