package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/generate"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/observe"
	"github.com/studyscroll/studyscroll/internal/pipeline"
	"github.com/studyscroll/studyscroll/internal/session"
)

type fakeGenerator struct {
	cards deck.Sequence
	err   error
	calls int
}

func (g *fakeGenerator) GenerateCards(_ context.Context, _ string) (deck.Sequence, error) {
	g.calls++
	return g.cards, g.err
}

type fakeSynthesizer struct {
	nar   *narrate.Narration
	err   error
	calls int
}

func (s *fakeSynthesizer) Synthesize(_ context.Context, _ string, _ deck.Sequence) (*narrate.Narration, error) {
	s.calls++
	return s.nar, s.err
}

func testCards() deck.Sequence {
	return deck.Sequence{
		{Type: deck.TypeConcept, Title: "A", Body: "a", Order: 0},
		{Type: deck.TypeSummary, Title: "B", Body: "b", Order: 1},
	}
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func newStore(t *testing.T) *session.FSStore {
	t.Helper()
	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return store
}

func TestRunFullPipeline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newStore(t)
	synth := &fakeSynthesizer{nar: &narrate.Narration{
		Audio:     []byte("wav-bytes"),
		Alignment: narrate.Alignment{{Order: 0, Start: 0.5, End: 3}, {Order: 1, Start: 3, End: 6}},
	}}
	p := pipeline.New(&fakeGenerator{cards: testCards()}, synth, store, testMetrics(t))

	id, err := p.Run(ctx, "photosynthesis")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if id == "" {
		t.Fatal("Run() returned empty session id")
	}

	sess, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !sess.HasAudio() {
		t.Error("HasAudio() = false, want true")
	}
	if len(sess.Alignment) != 2 {
		t.Errorf("len(Alignment) = %d, want 2", len(sess.Alignment))
	}
}

func TestRunDegradesToTextOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newStore(t)
	synth := &fakeSynthesizer{err: narrate.ErrTTSUnavailable}
	p := pipeline.New(&fakeGenerator{cards: testCards()}, synth, store, testMetrics(t))

	id, err := p.Run(ctx, "entropy")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil despite TTS failure", err)
	}

	sess, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.HasAudio() {
		t.Error("HasAudio() = true, want false after synthesis failure")
	}
	if len(sess.Cards) != 2 {
		t.Errorf("len(Cards) = %d, want 2", len(sess.Cards))
	}
}

func TestRunGenerationFailurePersistsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	store, err := session.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	synth := &fakeSynthesizer{}
	p := pipeline.New(&fakeGenerator{err: generate.ErrExhausted}, synth, store, testMetrics(t))

	if _, err := p.Run(ctx, "black holes"); !errors.Is(err, generate.ErrExhausted) {
		t.Fatalf("Run() = %v, want ErrExhausted", err)
	}
	if synth.calls != 0 {
		t.Errorf("synthesizer called %d times after generation failure, want 0", synth.calls)
	}
}

func TestRunRejectsBadTopics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	gen := &fakeGenerator{cards: testCards()}
	p := pipeline.New(gen, nil, newStore(t), testMetrics(t))

	for _, topic := range []string{"", "   ", strings.Repeat("x", 501)} {
		if _, err := p.Run(ctx, topic); !errors.Is(err, pipeline.ErrInvalidTopic) {
			t.Errorf("Run(%.10q...) = %v, want ErrInvalidTopic", topic, err)
		}
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for invalid topics, want 0", gen.calls)
	}
}

func TestRunWithoutSynthesizer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newStore(t)
	p := pipeline.New(&fakeGenerator{cards: testCards()}, nil, store, testMetrics(t))

	id, err := p.Run(ctx, "the roman empire")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	sess, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.HasAudio() {
		t.Error("HasAudio() = true, want false without synthesizer")
	}
}

func TestRunDistinctIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := pipeline.New(&fakeGenerator{cards: testCards()}, nil, newStore(t), testMetrics(t))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := p.Run(ctx, "entropy")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("Run() reused session id %s", id)
		}
		seen[id] = true
	}
}
