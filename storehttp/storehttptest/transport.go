// Package storehttptest provides an in-memory http.RoundTripper double for
// exercising storehttp.Store without a real server, mirroring the
// teacher's dummyTransport/failingTransport pair used against its own
// agent writer.
package storehttptest

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// RecordedRequest captures one decoded request the fake transport observed.
type RecordedRequest struct {
	Path    string
	BatchID string
	Body    []byte
}

// Transport is an http.RoundTripper that records every request it sees and
// can be told to fail the next N requests, mirroring the teacher's
// failingTransport.
type Transport struct {
	mu        sync.Mutex
	requests  []RecordedRequest
	failCount int
	failErr   error
	status    int
}

// New returns a Transport that succeeds (HTTP 200) by default.
func New() *Transport {
	return &Transport{status: http.StatusOK}
}

// FailNext makes the next n requests return HTTP 500 (or, if err is
// non-nil, fail at the transport level instead of returning a response).
func (t *Transport) FailNext(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failCount = n
	t.failErr = err
}

// SetStatus changes the HTTP status code returned on success (default 200).
func (t *Transport) SetStatus(status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Requests returns every request recorded so far, in order.
func (t *Transport) Requests() []RecordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedRequest, len(t.requests))
	copy(out, t.requests)
	return out
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body.Close()

	t.mu.Lock()
	t.requests = append(t.requests, RecordedRequest{
		Path:    req.URL.Path,
		BatchID: req.Header.Get("X-Spanforge-Batch-Id"),
		Body:    body,
	})
	fail := t.failCount > 0
	if fail {
		t.failCount--
	}
	failErr := t.failErr
	status := t.status
	t.mu.Unlock()

	if fail {
		if failErr != nil {
			return nil, failErr
		}
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte("OK"))),
		Header:     make(http.Header),
	}, nil
}
