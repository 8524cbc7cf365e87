package observability

import "time"

// Config holds the tunables enumerated in spec.md §6. Build one with
// NewConfig and functional options, following the teacher's
// newConfig(opts ...StartOption) convention.
type Config struct {
	MaxBatchSize        int
	MaxBufferSize       int
	MaxBatchWait        time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	Strategy            Strategy
	OutOfOrderWarnBurst int
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithMaxBatchSize overrides the size-trigger threshold (default 1000).
func WithMaxBatchSize(n int) Option { return func(c *Config) { c.MaxBatchSize = n } }

// WithMaxBufferSize overrides the emergency-overflow threshold (default 10000).
func WithMaxBufferSize(n int) Option { return func(c *Config) { c.MaxBufferSize = n } }

// WithMaxBatchWait overrides the wall-clock flush threshold (default 5s).
func WithMaxBatchWait(d time.Duration) Option { return func(c *Config) { c.MaxBatchWait = d } }

// WithMaxRetries overrides the number of attempts after the initial one
// (default 4).
func WithMaxRetries(n int) Option { return func(c *Config) { c.MaxRetries = n } }

// WithRetryDelay overrides the exponential-backoff base delay (default 500ms).
func WithRetryDelay(d time.Duration) Option { return func(c *Config) { c.RetryDelay = d } }

// WithStrategy overrides the negotiated strategy, or StrategyAuto to let
// the store's preference win (the default).
func WithStrategy(s Strategy) Option { return func(c *Config) { c.Strategy = s } }

// WithOutOfOrderWarnBurst overrides how many out-of-order warnings the
// router lets through at once before throttling the log line to one per
// second (default 5). The dropped-event counter is never throttled.
func WithOutOfOrderWarnBurst(n int) Option { return func(c *Config) { c.OutOfOrderWarnBurst = n } }

// NewConfig builds a Config from defaults plus the given options.
func NewConfig(opts ...Option) Config {
	c := Config{
		MaxBatchSize:        1000,
		MaxBufferSize:       10000,
		MaxBatchWait:        5 * time.Second,
		MaxRetries:          4,
		RetryDelay:          500 * time.Millisecond,
		Strategy:            StrategyAuto,
		OutOfOrderWarnBurst: 5,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Config) retryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: c.MaxRetries, BaseDelay: c.RetryDelay}
}
