// Package log implements a small, allocation-conscious logging facade for
// the exporter module. It is not a general purpose logging framework: there
// is one global Logger, four severity helpers, and a rate limiter on Error
// so a misbehaving store cannot flood the host program's logs.
package log

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger is the interface through which all log lines are emitted. Replace
// it with UseLogger to route output elsewhere (files, a structured sink, a
// test recorder).
type Logger interface {
	Log(msg string)
}

// Level gates Debug output. Warn, Error and Info are emitted at every
// level; only Debug is gated by SetLevel.
type Level int32

const (
	// LevelWarn emits Warn/Error/Info but not Debug.
	LevelWarn Level = iota
	// LevelDebug emits everything.
	LevelDebug
)

const prefixMsg = "spanforge"

var (
	mu             sync.Mutex
	logger         Logger = newDefaultLogger()
	levelThreshold        = LevelWarn
)

func init() {
	setLoggingRate(os.Getenv("SPANFORGE_TRACE_LOG_RATE"))
}

// UseLogger sets l as the active logger and returns the previous one so
// callers (typically tests) can restore it.
func UseLogger(l Logger) Logger {
	mu.Lock()
	defer mu.Unlock()
	old := logger
	logger = l
	return old
}

// SetLevel adjusts which severities are emitted.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	levelThreshold = lvl
}

// DebugEnabled reports whether Debug currently emits anything.
func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return levelThreshold >= LevelDebug
}

func emit(level, format string, a ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return
	}
	l.Log(fmt.Sprintf("%s %s: %s", prefixMsg, level, fmt.Sprintf(format, a...)))
}

// Info logs at informational severity.
func Info(format string, a ...any) {
	mu.Lock()
	enabled := levelThreshold >= LevelWarn
	mu.Unlock()
	if enabled {
		emit("INFO", format, a...)
	}
}

// Warn logs at warning severity. Used for recoverable, noteworthy
// conditions: out-of-order events, strategy fallback, serialization
// failures.
func Warn(format string, a ...any) {
	emit("WARN", format, a...)
}

// Debug logs at debug severity, gated by SetLevel(LevelDebug).
func Debug(format string, a ...any) {
	if DebugEnabled() {
		emit("DEBUG", format, a...)
	}
}

// defaultLogger writes to stderr.
type defaultLogger struct{}

func newDefaultLogger() Logger { return defaultLogger{} }

func (defaultLogger) Log(msg string) { fmt.Fprintln(os.Stderr, msg) }

// DiscardLogger drops every line; useful in benchmarks and in tests that
// don't care about log output.
type DiscardLogger struct{}

// Log implements Logger.
func (DiscardLogger) Log(string) {}

// RecordLogger is a test double that records every emitted line, optionally
// dropping lines that contain an ignored substring. It is part of the test
// contract for this module (spec.md §8's observability-into-failures
// assertions), not an internal hack.
type RecordLogger struct {
	mu      sync.Mutex
	lines   []string
	ignored []string
}

// Log implements Logger.
func (r *RecordLogger) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ig := range r.ignored {
		if strings.Contains(msg, ig) {
			return
		}
	}
	r.lines = append(r.lines, msg)
}

// Ignore causes future lines containing substr to be dropped silently.
func (r *RecordLogger) Ignore(substr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored = append(r.ignored, substr)
}

// Logs returns every recorded line, in order.
func (r *RecordLogger) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Reset clears recorded lines and ignore rules.
func (r *RecordLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	r.ignored = nil
}

// --- rate-limited Error ---

const defaultErrorLimit = 200

var (
	errmu   sync.Mutex
	errrate = time.Minute
	errset  = map[string]*errCount{}
)

type errCount struct {
	first string
	n     int
}

// Error logs at error severity. With errrate == 0 each line is emitted
// instantly. Otherwise nothing is emitted here: errors sharing the same
// format string are collected and emitted as a single line (the first
// message plus a count of the repeats) when Flush is called, so a tight
// failure loop (e.g. a store that is permanently down) cannot spam the log.
// No background flush runs; collected lines wait for an explicit Flush.
func Error(format string, a ...any) {
	msgStr := fmt.Sprintf(format, a...)
	if errrate <= 0 {
		emit("ERROR", "%s", msgStr)
		return
	}
	errmu.Lock()
	c, ok := errset[format]
	if !ok {
		c = &errCount{first: msgStr}
		errset[format] = c
	}
	c.n++
	errmu.Unlock()
}

// Flush emits and clears any coalesced Error lines. Safe to call repeatedly;
// a second call with nothing pending is a no-op.
func Flush() {
	errmu.Lock()
	pending := errset
	errset = map[string]*errCount{}
	errmu.Unlock()

	for _, c := range pending {
		if c.n <= 1 {
			emit("ERROR", "%s", c.first)
			continue
		}
		extra := c.n - 1
		if extra >= defaultErrorLimit {
			emit("ERROR", "%s, %d+ additional messages skipped", c.first, defaultErrorLimit)
		} else {
			emit("ERROR", "%s, %d additional messages skipped", c.first, extra)
		}
	}
}

func setLoggingRate(val string) {
	if val == "" {
		errrate = time.Minute
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		errrate = time.Minute
		return
	}
	errrate = time.Duration(n) * time.Second
}
