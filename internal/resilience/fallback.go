package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] has failed
// or been skipped by an open breaker.
var ErrAllFailed = errors.New("all providers failed")

// Entry names one provider instance for a [FallbackGroup]. Entries are tried
// in the order given.
type Entry[T any] struct {
	Name  string
	Value T
}

// GroupConfig configures a [FallbackGroup].
type GroupConfig struct {
	// Attempts is how many times a single entry is tried per Execute call
	// before the group advances to the next entry. Default 2 (one retry).
	Attempts int
	// Breaker is the template for each entry's circuit breaker; Name is
	// filled in per entry.
	Breaker BreakerConfig
}

// groupEntry pairs an Entry with its dedicated breaker.
type groupEntry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// FallbackGroup tries an ordered list of provider instances until one
// succeeds. Each entry gets its own [Breaker] and a bounded number of
// attempts per call, so a flapping primary is retried once and then bypassed,
// and a dead one is skipped entirely while its breaker is open.
//
// FallbackGroup is safe for concurrent use after construction.
type FallbackGroup[T any] struct {
	entries  []groupEntry[T]
	attempts int
}

// NewFallbackGroup builds a group over entries in priority order. It panics
// if entries is empty; a group with nothing to call is a programming error.
func NewFallbackGroup[T any](cfg GroupConfig, entries ...Entry[T]) *FallbackGroup[T] {
	if len(entries) == 0 {
		panic("resilience: fallback group needs at least one entry")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	ges := make([]groupEntry[T], 0, len(entries))
	for _, e := range entries {
		bc := cfg.Breaker
		bc.Name = e.Name
		ges = append(ges, groupEntry[T]{
			name:    e.Name,
			value:   e.Value,
			breaker: NewBreaker(bc),
		})
	}
	return &FallbackGroup[T]{entries: ges, attempts: cfg.Attempts}
}

// Names returns the entry names in priority order.
func (g *FallbackGroup[T]) Names() []string {
	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.name
	}
	return names
}

// Execute runs fn against each entry in order, up to the configured attempt
// count per entry, until one call succeeds. Entries with an open breaker are
// skipped. When everything fails the last error is wrapped in [ErrAllFailed].
func (g *FallbackGroup[T]) Execute(fn func(name string, v T) error) error {
	_, err := ExecuteWithResult(g, func(name string, v T) (struct{}, error) {
		return struct{}{}, fn(name, v)
	})
	return err
}

// ExecuteWithResult is the result-returning form of [FallbackGroup.Execute].
// It is a package-level function because Go methods cannot introduce type
// parameters.
func ExecuteWithResult[T, R any](g *FallbackGroup[T], fn func(name string, v T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range g.entries {
		e := &g.entries[i]
		for attempt := 1; attempt <= g.attempts; attempt++ {
			var result R
			err := e.breaker.Call(func() error {
				var callErr error
				result, callErr = fn(e.name, e.value)
				return callErr
			})
			if err == nil {
				return result, nil
			}
			lastErr = err
			if errors.Is(err, ErrOpen) {
				slog.Debug("skipping provider, breaker open", "provider", e.name)
				break
			}
			slog.Warn("provider call failed",
				"provider", e.name,
				"attempt", attempt,
				"max_attempts", g.attempts,
				"error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
