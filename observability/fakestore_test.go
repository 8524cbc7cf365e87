package observability

import (
	"context"
	"sync"
)

// fakeStore is a minimal in-memory ObservabilityStore used across the
// package's tests. failBatchCreateTimes / failBatchUpdateTimes, if set,
// make the next N matching batch calls return failErr before succeeding.
type fakeStore struct {
	mu sync.Mutex

	hint TracingStrategyHint

	creates      []CreateRecord
	updates      []SequencedUpdate
	batchCreates [][]CreateRecord
	batchUpdates [][]SequencedUpdate

	failBatchCreateTimes int
	failBatchUpdateTimes int
	failErr              error
}

func newFakeStore(preferred Strategy, supported ...Strategy) *fakeStore {
	sup := map[Strategy]bool{}
	for _, s := range supported {
		sup[s] = true
	}
	return &fakeStore{hint: TracingStrategyHint{Preferred: preferred, Supported: sup}}
}

func (s *fakeStore) TracingStrategy() TracingStrategyHint {
	return s.hint
}

func (s *fakeStore) CreateSpan(ctx context.Context, rec CreateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, rec)
	return nil
}

func (s *fakeStore) UpdateSpan(ctx context.Context, key SpanKey, update UpdateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, SequencedUpdate{SpanKey: key, Update: update})
	return nil
}

func (s *fakeStore) BatchCreateSpans(ctx context.Context, records []CreateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBatchCreateTimes > 0 {
		s.failBatchCreateTimes--
		return s.failErr
	}
	cp := make([]CreateRecord, len(records))
	copy(cp, records)
	s.batchCreates = append(s.batchCreates, cp)
	return nil
}

func (s *fakeStore) BatchUpdateSpans(ctx context.Context, records []SequencedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBatchUpdateTimes > 0 {
		s.failBatchUpdateTimes--
		return s.failErr
	}
	cp := make([]SequencedUpdate, len(records))
	copy(cp, records)
	s.batchUpdates = append(s.batchUpdates, cp)
	return nil
}

func (s *fakeStore) snapshotCounts() (creates, updates, batchCreates, batchUpdates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creates), len(s.updates), len(s.batchCreates), len(s.batchUpdates)
}
