// Package resilience provides the failover primitives used when calling
// external model providers.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open) that
// stops hammering a backend that keeps failing. [FallbackGroup] composes an
// ordered list of provider instances with one breaker each, retrying a
// provider a bounded number of times before advancing to the next healthy
// one.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Call] while the breaker is open and the
// cooldown has not yet elapsed.
var ErrOpen = errors.New("breaker open")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed forwards all calls.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls with [ErrOpen] until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen lets probe calls through to decide whether to close
	// again.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker]. Zero fields take defaults.
type BreakerConfig struct {
	// Name labels the breaker in log output.
	Name string
	// Threshold is how many consecutive failures open the breaker.
	// Default 3.
	Threshold int
	// Cooldown is how long an open breaker waits before probing again.
	// Default 30s.
	Cooldown time.Duration
	// Probes is how many consecutive half-open successes close the breaker.
	// Default 2.
	Probes int
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	probes    int

	mu       sync.Mutex
	state    BreakerState
	failures int
	okProbes int
	openedAt time.Time
}

// NewBreaker returns a closed [Breaker] configured by cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 2
	}
	return &Breaker{
		name:      cfg.Name,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		probes:    cfg.Probes,
	}
}

// Call runs fn if the breaker permits it, recording the outcome. While open
// it returns [ErrOpen] without invoking fn.
func (b *Breaker) Call(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

// allow admits or rejects a call, handling the open-to-half-open transition.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.state = BreakerHalfOpen
		b.okProbes = 0
		slog.Info("breaker half-open", "name", b.name)
	}
	return nil
}

// record updates breaker state from a call outcome.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		if b.state == BreakerHalfOpen {
			// A failed probe re-opens immediately.
			b.trip()
			return
		}
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
		return
	}

	switch b.state {
	case BreakerHalfOpen:
		b.okProbes++
		if b.okProbes >= b.probes {
			b.state = BreakerClosed
			b.failures = 0
			slog.Info("breaker closed", "name", b.name)
		}
	case BreakerClosed:
		b.failures = 0
	}
}

// trip moves the breaker to open. Must be called with b.mu held.
func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.openedAt = time.Now()
	b.failures = b.threshold
	slog.Warn("breaker opened", "name", b.name, "cooldown", b.cooldown)
}

// State returns the current state. An open breaker whose cooldown has elapsed
// reports half-open; the transition itself happens on the next Call.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
	b.okProbes = 0
}
