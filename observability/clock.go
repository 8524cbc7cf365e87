package observability

import "time"

// Clock abstracts wall-clock reads and sleeps so tests can drive the
// time-trigger and retry-backoff paths deterministically. The production
// implementation is realClock; tests use internal/testclock or an
// equivalent local fake satisfying this interface.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
