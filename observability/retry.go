package observability

import "time"

// RetryPolicy is a pure function from attempt number to delay, with a cap
// on the number of attempts after the initial try. It holds no state and
// is safe to share across goroutines.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first.
	MaxRetries int
	// BaseDelay is the delay before the first retry; each subsequent retry
	// doubles it.
	BaseDelay time.Duration
}

// Delay returns the backoff before retry attempt n (n starts at 1 for the
// first retry; Flusher.flushAttempt passes attempt+1 after a failure at its
// zero-based attempt).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Exhausted reports whether attempt has used up the retry budget, i.e.
// whether a failure at this attempt should be treated as final.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt > p.MaxRetries
}
