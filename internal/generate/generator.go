// Package generate turns a free-text topic into a validated card sequence by
// prompting a language model and validating its output.
//
// Providers are tried in configured priority order through a
// [resilience.FallbackGroup]; a provider gets a bounded number of attempts
// (malformed or structurally invalid output counts as a failed attempt)
// before the next one is tried. Only when every provider is exhausted does
// the caller see an error, wrapped in [ErrExhausted]. Which provider answered
// is an implementation detail; the structure of the result is the contract.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/observe"
	"github.com/studyscroll/studyscroll/internal/resilience"
	"github.com/studyscroll/studyscroll/pkg/provider/llm"
)

// ErrExhausted is returned when every configured provider failed to produce
// a valid card sequence.
var ErrExhausted = errors.New("all card generation providers exhausted")

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// Config holds the generation knobs. Zero fields take defaults.
type Config struct {
	// Temperature passed to every provider. Default 0.7.
	Temperature float64
	// MaxTokens passed to every provider. Default 4096.
	MaxTokens int
	// Attempts is how many times one provider is tried before failing over.
	// Default 2 (one retry).
	Attempts int
	// Breaker configures the per-provider circuit breakers.
	Breaker resilience.BreakerConfig
	// Metrics receives per-attempt provider counters. Nil means the
	// package-level default instance.
	Metrics *observe.Metrics
}

// Generator produces card sequences from topics.
type Generator struct {
	group       *resilience.FallbackGroup[llm.Provider]
	temperature float64
	maxTokens   int
	metrics     *observe.Metrics
}

// New builds a Generator over providers in priority order. At least one
// provider is required.
func New(cfg Config, providers ...resilience.Entry[llm.Provider]) *Generator {
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Generator{
		group: resilience.NewFallbackGroup(resilience.GroupConfig{
			Attempts: cfg.Attempts,
			Breaker:  cfg.Breaker,
		}, providers...),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		metrics:     cfg.Metrics,
	}
}

// Providers returns the configured provider names in priority order.
func (g *Generator) Providers() []string {
	return g.group.Names()
}

// GenerateCards prompts for topic and returns the validated sequence.
// Validation failures advance the fallback chain like any provider error; a
// repaired sequence is accepted with the repairs logged at warn.
func (g *Generator) GenerateCards(ctx context.Context, topic string) (deck.Sequence, error) {
	prompt, err := buildPrompt(topic)
	if err != nil {
		return nil, err
	}
	req := llm.Request{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		Temperature:  g.temperature,
		MaxTokens:    g.maxTokens,
	}

	seq, err := resilience.ExecuteWithResult(g.group, func(name string, p llm.Provider) (deck.Sequence, error) {
		resp, err := p.Complete(ctx, req)
		if err != nil {
			g.metrics.RecordProviderRequest(ctx, name, "llm", "error")
			g.metrics.RecordProviderError(ctx, name, "llm")
			return nil, err
		}
		res, err := deck.Validate([]byte(resp.Content))
		if err != nil {
			g.metrics.RecordProviderRequest(ctx, name, "llm", "error")
			g.metrics.RecordProviderError(ctx, name, "llm")
			return nil, fmt.Errorf("provider %s returned invalid cards: %w", name, err)
		}
		g.metrics.RecordProviderRequest(ctx, name, "llm", "ok")
		if len(res.Repairs) > 0 {
			slog.Warn("card sequence repaired",
				"provider", name,
				"topic", topic,
				"repairs", res.Repairs)
		}
		slog.Info("card sequence generated",
			"provider", name,
			"topic", topic,
			"cards", len(res.Sequence))
		return res.Sequence, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	return seq, nil
}
