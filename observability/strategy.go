package observability

import "github.com/spanforge/exporter-go/internal/log"

// StrategySource records whether a resolved Strategy came from the user's
// explicit preference or fell back to the store's preferred strategy.
type StrategySource int

const (
	// SourceAuto means the resolver used the store's preferred strategy,
	// either because the user asked for auto or because their choice
	// wasn't supported.
	SourceAuto StrategySource = iota
	// SourceUser means the user's explicit preference was honored.
	SourceUser
)

// StrategyResolver negotiates the write strategy once and caches the
// result; re-resolution is a no-op (spec.md §4.1).
type StrategyResolver struct {
	resolved bool
	strategy Strategy
	source   StrategySource
}

// Resolve negotiates preference against hint. If preference is
// StrategyAuto, the store's preferred strategy wins. If preference names a
// strategy the store supports, it wins and is attributed to the user. If
// preference names an unsupported strategy, a ConfigError warning is
// logged and the store's preferred strategy is used instead.
func (r *StrategyResolver) Resolve(preference Strategy, hint TracingStrategyHint) (Strategy, StrategySource) {
	if r.resolved {
		return r.strategy, r.source
	}
	r.resolved = true

	if preference == StrategyAuto {
		r.strategy, r.source = hint.Preferred, SourceAuto
		return r.strategy, r.source
	}
	if hint.Supports(preference) {
		r.strategy, r.source = preference, SourceUser
		return r.strategy, r.source
	}
	log.Warn("unsupported tracing strategy %q requested, falling back to store-preferred strategy %q", preference, hint.Preferred)
	r.strategy, r.source = hint.Preferred, SourceAuto
	return r.strategy, r.source
}

// Resolved reports whether Resolve has already run, and if so, its result.
func (r *StrategyResolver) Resolved() (Strategy, StrategySource, bool) {
	return r.strategy, r.source, r.resolved
}
