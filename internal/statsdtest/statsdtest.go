// Package statsdtest provides an in-memory double for the Gauge/Count/Incr
// subset of statsd.ClientInterface (internal/metrics.Client) for asserting
// on the metrics the exporter core emits, without standing up a real statsd
// listener.
package statsdtest

import "sync"

// TestStatsdClient records Gauge/Count/Incr calls in memory.
type TestStatsdClient struct {
	mu         sync.Mutex
	n          int
	counts     map[string]int64
	gauges     map[string]float64
	gaugeCalls []statCall
	incrCalls  []statCall
	countCalls []statCall
}

type statCall struct {
	name string
	tags []string
	rate float64
}

func (tg *TestStatsdClient) init() {
	if tg.counts == nil {
		tg.counts = map[string]int64{}
	}
	if tg.gauges == nil {
		tg.gauges = map[string]float64{}
	}
}

// Gauge implements statsd.ClientInterface.
func (tg *TestStatsdClient) Gauge(name string, value float64, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.init()
	tg.n++
	tg.gauges[name] = value
	tg.gaugeCalls = append(tg.gaugeCalls, statCall{name, tags, rate})
	return nil
}

// Incr implements statsd.ClientInterface.
func (tg *TestStatsdClient) Incr(name string, tags []string, rate float64) error {
	return tg.Count(name, 1, tags, rate)
}

// Count implements statsd.ClientInterface.
func (tg *TestStatsdClient) Count(name string, value int64, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.init()
	tg.n++
	tg.counts[name] += value
	tg.countCalls = append(tg.countCalls, statCall{name, tags, rate})
	return nil
}

// Timing implements statsd.ClientInterface.
func (tg *TestStatsdClient) Timing(name string, value float64, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.init()
	tg.n++
	return nil
}

// Close implements statsd.ClientInterface.
func (tg *TestStatsdClient) Close() error { return nil }

// Reset clears all recorded calls.
func (tg *TestStatsdClient) Reset() {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.n = 0
	tg.counts = map[string]int64{}
	tg.gauges = map[string]float64{}
	tg.gaugeCalls = nil
	tg.incrCalls = nil
	tg.countCalls = nil
}

// Counts returns a copy of the accumulated counter totals by name.
func (tg *TestStatsdClient) Counts() map[string]int64 {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	out := make(map[string]int64, len(tg.counts))
	for k, v := range tg.counts {
		out[k] = v
	}
	return out
}

// ValsByName returns the most recent gauge value recorded for each name.
func (tg *TestStatsdClient) ValsByName() map[string]float64 {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	out := make(map[string]float64, len(tg.gauges))
	for k, v := range tg.gauges {
		out[k] = v
	}
	return out
}

// CallNames returns the name of every Gauge/Count/Incr call: all Gauge calls
// first, then all Count/Incr calls, each group in call order.
func (tg *TestStatsdClient) CallNames() []string {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	var names []string
	for _, c := range tg.gaugeCalls {
		names = append(names, c.name)
	}
	for _, c := range tg.countCalls {
		names = append(names, c.name)
	}
	return names
}

// N returns the total number of calls recorded across all methods.
func (tg *TestStatsdClient) N() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.n
}
