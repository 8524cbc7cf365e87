package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/spanforge/exporter-go/internal/log"
	"github.com/spanforge/exporter-go/internal/metrics"
)

// State is the Exporter's lifecycle (DESIGN NOTES §9). Transitions only move
// forward. Disabled is entered from Init when no store is given, or from an
// explicit Disable call in any state but ShutDown; failing store calls never
// disable the exporter.
type State int

const (
	// Uninitialized is the zero value: no store configured yet.
	Uninitialized State = iota
	// Initializing means Init is running TracingStrategy negotiation.
	Initializing
	// Ready means events are routed to the store.
	Ready
	// Disabled means events are accepted but silently dropped: either Init
	// failed, or the caller explicitly disabled export.
	Disabled
	// ShutDown means Shutdown has completed; ExportEvent is now a no-op and
	// further calls to Shutdown are harmless repeats.
	ShutDown
)

// String renders the state for logging.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Disabled:
		return "disabled"
	case ShutDown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Exporter is the package's façade: ExportEvent is the single entry point a
// producer calls, and the state machine above decides whether that call
// reaches a store, is buffered, or is dropped.
type Exporter struct {
	cfg     Config
	clock   Clock
	metrics metrics.Client

	mu       sync.RWMutex
	state    State
	store    ObservabilityStore
	resolver StrategyResolver
	tracker  *SpanTracker
	flusher  *Flusher
	router   *EventRouter

	// initDone is closed once Init leaves the Initializing state (Ready or
	// Disabled), so concurrent ExportEvent callers can wait on it instead of
	// racing the state transition (spec.md §4.5, §5).
	initDone chan struct{}
}

// NewExporter returns an Exporter in the Uninitialized state. Call Init
// before routing any events.
func NewExporter(cfg Config, clock Clock, m metrics.Client) *Exporter {
	if clock == nil {
		clock = realClock{}
	}
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Exporter{
		cfg:      cfg,
		clock:    clock,
		metrics:  m,
		state:    Uninitialized,
		tracker:  NewSpanTracker(),
		initDone: make(chan struct{}),
	}
}

// State reports the exporter's current lifecycle state.
func (e *Exporter) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Init negotiates the write strategy against store and, on success,
// transitions Uninitialized -> Ready. A nil store transitions to Disabled
// instead of returning an error: ExportEvent must remain safe to call
// unconditionally from the producer's hot path (spec.md §5). An unsupported
// strategy preference falls back to the store's preferred strategy. Init
// returns an error only when called in a state other than Uninitialized.
func (e *Exporter) Init(ctx context.Context, store ObservabilityStore) error {
	e.mu.Lock()
	if e.state != Uninitialized {
		e.mu.Unlock()
		return fmt.Errorf("observability: Init called in state %s, want %s", e.state, Uninitialized)
	}
	e.state = Initializing
	e.mu.Unlock()

	if store == nil {
		e.mu.Lock()
		if e.state != Disabled {
			e.state = Disabled
			close(e.initDone)
		}
		e.mu.Unlock()
		log.Warn("observability exporter disabled: no store configured")
		return nil
	}

	hint := store.TracingStrategy()
	strategy, source := e.resolver.Resolve(e.cfg.Strategy, hint)
	log.Info("observability exporter resolved strategy=%q source=%d", strategy, source)

	flusher := NewFlusher(e.cfg, e.clock, store, e.tracker, e.metrics, strategy)
	router := NewEventRouter(strategy, store, e.tracker, flusher, e.metrics, e.cfg.OutOfOrderWarnBurst)

	e.mu.Lock()
	if e.state == Disabled {
		// A concurrent Disable() won the race while strategy negotiation
		// was in flight; honor it instead of resurrecting Ready, and leave
		// initDone closed (Disable already closed it).
		e.mu.Unlock()
		return nil
	}
	e.store = store
	e.flusher = flusher
	e.router = router
	e.state = Ready
	close(e.initDone)
	e.mu.Unlock()
	return nil
}

// Disable forces Disabled from any state but ShutDown. Useful for a
// producer's kill switch without tearing down buffered data. If Init is
// still in flight, Disable wins the race: Init detects the Disabled state
// when it finishes and will not resurrect Ready.
func (e *Exporter) Disable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == ShutDown {
		return
	}
	wasInitializing := e.state == Initializing
	e.state = Disabled
	if wasInitializing {
		// Init hasn't closed initDone yet; unblock anyone already waiting
		// in ExportEvent rather than leaving them hung until Init finishes.
		close(e.initDone)
	}
}

// ExportEvent routes a single event if the exporter is Ready. A caller
// racing an in-flight Init blocks until that Init completes (spec.md §4.5,
// §5) rather than observing a half-initialized exporter; an exporter that
// was never initialized at all (Uninitialized) drops immediately, since
// there is no in-flight Init to wait for. Disabled/ShutDown drop with a
// debug log.
func (e *Exporter) ExportEvent(event TracingEvent) {
	e.mu.RLock()
	state := e.state
	initDone := e.initDone
	e.mu.RUnlock()

	if state == Initializing {
		<-initDone
	} else if state == Uninitialized {
		return
	}

	e.mu.RLock()
	state = e.state
	router := e.router
	e.mu.RUnlock()

	if state != Ready {
		log.Debug("observability exporter dropping event: state=%s", state)
		return
	}
	router.Route(event)
}

// Flush forces a synchronous flush of any buffered events. A no-op if Init
// never reached Ready; after a later Disable or Shutdown it still flushes
// whatever the buffer holds.
func (e *Exporter) Flush() {
	e.mu.RLock()
	flusher := e.flusher
	e.mu.RUnlock()
	if flusher != nil {
		flusher.Flush()
	}
}

// Shutdown flushes any remaining buffered events, waits for in-flight
// retries to resolve, and transitions to ShutDown. Safe to call more than
// once. ExportEvent calls made concurrently with Shutdown may be dropped;
// callers own stopping new event production first. Flushes the log's
// coalesced Error lines on the way out, mirroring the teacher's tracer.Stop,
// so a PermanentStoreError logged during the final flush reaches its sink;
// log.Error holds such lines until log.Flush is called.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.state == ShutDown {
		e.mu.Unlock()
		return nil
	}
	flusher := e.flusher
	e.state = ShutDown
	e.mu.Unlock()

	if flusher == nil {
		log.Flush()
		return nil
	}

	done := make(chan struct{})
	go func() {
		flusher.Flush()
		flusher.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Flush()
		return nil
	case <-ctx.Done():
		log.Flush()
		return ctx.Err()
	}
}

// Tracker exposes the SpanTracker for read-only diagnostics (spec.md §8 P3).
func (e *Exporter) Tracker() *SpanTracker {
	return e.tracker
}
