// Package pipeline orchestrates one topic-to-session run: generate cards,
// synthesize narration, persist the result.
//
// The stages run sequentially and share no mutable state across runs, so a
// Pipeline may serve concurrent requests; the caller bounds how many run at
// once. A generation failure aborts the run with nothing persisted. A
// synthesis failure does not: the session is persisted text-only, which is a
// valid degraded state the serving layer understands.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/observe"
	"github.com/studyscroll/studyscroll/internal/session"
)

// MaxTopicLen is the longest accepted topic, in runes.
const MaxTopicLen = 500

// ErrInvalidTopic is returned by Run for an empty or oversized topic.
var ErrInvalidTopic = errors.New("invalid topic")

// Generator produces a validated card sequence for a topic.
type Generator interface {
	GenerateCards(ctx context.Context, topic string) (deck.Sequence, error)
}

// Synthesizer produces narration audio and alignment for a card sequence.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, cards deck.Sequence) (*narrate.Narration, error)
}

// Pipeline chains generation, narration, and persistence.
type Pipeline struct {
	gen     Generator
	synth   Synthesizer
	store   session.Store
	metrics *observe.Metrics
}

// New builds a Pipeline. synth may be nil, in which case every session is
// text-only.
func New(gen Generator, synth Synthesizer, store session.Store, metrics *observe.Metrics) *Pipeline {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Pipeline{gen: gen, synth: synth, store: store, metrics: metrics}
}

// Run executes the full pipeline for topic and returns the new session id.
func (p *Pipeline) Run(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if n := utf8.RuneCountInString(topic); n > MaxTopicLen {
		return "", fmt.Errorf("%w: %d runes, max %d", ErrInvalidTopic, n, MaxTopicLen)
	}

	p.metrics.ActiveGenerations.Add(ctx, 1)
	defer p.metrics.ActiveGenerations.Add(ctx, -1)
	runStart := time.Now()

	genStart := time.Now()
	cards, err := p.gen.GenerateCards(ctx, topic)
	p.metrics.GenerationDuration.Record(ctx, time.Since(genStart).Seconds())
	if err != nil {
		return "", fmt.Errorf("generate cards: %w", err)
	}

	var nar *narrate.Narration
	if p.synth != nil {
		synthStart := time.Now()
		nar, err = p.synth.Synthesize(ctx, topic, cards)
		p.metrics.SynthesisDuration.Record(ctx, time.Since(synthStart).Seconds())
		if err != nil {
			// Cards are still worth persisting; the session degrades to
			// text-only.
			slog.Warn("narration failed, persisting text-only session",
				"topic", topic,
				"error", err)
			nar = nil
		}
	}

	sess := session.New(topic, cards, nar)
	if err := p.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	p.metrics.RecordSessionCreated(ctx, sess.HasAudio())
	p.metrics.PipelineDuration.Record(ctx, time.Since(runStart).Seconds())
	slog.Info("session created",
		"session_id", sess.ID,
		"topic", topic,
		"cards", len(cards),
		"audio", sess.HasAudio(),
		"duration", time.Since(runStart))

	return sess.ID, nil
}
