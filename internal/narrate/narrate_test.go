package narrate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/pkg/audio"
	"github.com/studyscroll/studyscroll/pkg/provider/tts"
	"github.com/studyscroll/studyscroll/pkg/provider/tts/mock"
)

// sequence builds an n-card deck with a quiz in the middle.
func sequence(n int) deck.Sequence {
	cards := make(deck.Sequence, 0, n)
	for i := 0; i < n; i++ {
		c := deck.Card{
			Type:  deck.TypeExample,
			Title: fmt.Sprintf("Card %d", i),
			Body:  strings.Repeat("word ", 10+i),
			Order: i,
		}
		switch i {
		case 0:
			c.Type = deck.TypeConcept
		case n - 1:
			c.Type = deck.TypeSummary
		case n / 2:
			c.Type = deck.TypeQuiz
			c.Answer = "Because of gravity."
		}
		cards = append(cards, c)
	}
	return cards
}

// clipOf returns a mono 24kHz PCM clip lasting secs seconds.
func clipOf(secs int) *tts.Clip {
	return &tts.Clip{
		PCM:        make([]byte, secs*24000*2),
		SampleRate: 24000,
		Channels:   1,
	}
}

func TestSynthesizeAlignment(t *testing.T) {
	t.Parallel()

	for _, n := range []int{12, 14, 18} {
		t.Run(fmt.Sprintf("%d cards", n), func(t *testing.T) {
			t.Parallel()

			p := &mock.Provider{SynthesizeClip: clipOf(60)}
			s := narrate.NewSynthesizer(p, tts.Voice{ID: "alloy"})

			nar, err := s.Synthesize(context.Background(), "gravity", sequence(n))
			if err != nil {
				t.Fatalf("Synthesize() error = %v, want nil", err)
			}

			spans := nar.Alignment
			if len(spans) != n {
				t.Fatalf("len(Alignment) = %d, want %d", len(spans), n)
			}
			total := nar.Duration.Seconds()

			covered := 0.0
			for i, sp := range spans {
				if sp.Order != i {
					t.Errorf("span %d: Order = %d, want %d", i, sp.Order, i)
				}
				if sp.End <= sp.Start {
					t.Errorf("span %d: End %v <= Start %v", i, sp.End, sp.Start)
				}
				if i > 0 && sp.Start < spans[i-1].End {
					t.Errorf("span %d overlaps previous: Start %v < prev End %v", i, sp.Start, spans[i-1].End)
				}
				covered += sp.End - sp.Start
			}
			if last := spans[len(spans)-1]; last.End != total {
				t.Errorf("last span End = %v, want total duration %v", last.End, total)
			}
			// The intro is the only uncovered stretch; it must stay within the
			// leading-silence tolerance.
			if covered < total*0.95 {
				t.Errorf("union covers %.2fs of %.2fs, want at least 95%%", covered, total)
			}
		})
	}
}

func TestSynthesizeAlignmentShortCardsLongTopic(t *testing.T) {
	t.Parallel()

	// Minimal one-word cards under a verbose topic: the intro line's
	// character share would exceed the leading-silence tolerance without the
	// clamp.
	cards := make(deck.Sequence, 0, 12)
	for i := 0; i < 12; i++ {
		c := deck.Card{Type: deck.TypeExample, Title: "T", Body: "B", Order: i}
		switch i {
		case 0:
			c.Type = deck.TypeConcept
		case 11:
			c.Type = deck.TypeSummary
		}
		cards = append(cards, c)
	}
	topic := strings.Repeat("the thermodynamics of very small systems ", 5)

	p := &mock.Provider{SynthesizeClip: clipOf(60)}
	s := narrate.NewSynthesizer(p, tts.Voice{ID: "alloy"})

	nar, err := s.Synthesize(context.Background(), topic, cards)
	if err != nil {
		t.Fatalf("Synthesize() error = %v, want nil", err)
	}

	total := nar.Duration.Seconds()
	covered := 0.0
	for i, sp := range nar.Alignment {
		if sp.End <= sp.Start {
			t.Errorf("span %d: End %v <= Start %v", i, sp.End, sp.Start)
		}
		covered += sp.End - sp.Start
	}
	// The clamp puts coverage exactly at the floor, so allow summation
	// rounding.
	if covered < total*0.95-1e-9 {
		t.Errorf("union covers %.2fs of %.2fs, want at least 95%%", covered, total)
	}
	if first := nar.Alignment[0].Start; first > total*0.05+1e-9 {
		t.Errorf("first span starts at %.2fs, want at most %.2fs", first, total*0.05)
	}
}

func TestSynthesizeSingleCall(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{SynthesizeClip: clipOf(30)}
	s := narrate.NewSynthesizer(p, tts.Voice{ID: "alloy"})

	if _, err := s.Synthesize(context.Background(), "gravity", sequence(14)); err != nil {
		t.Fatalf("Synthesize() error = %v, want nil", err)
	}
	if p.CallCount() != 1 {
		t.Fatalf("TTS calls = %d, want exactly 1", p.CallCount())
	}

	script := p.SynthesizeCalls[0].Script
	if !strings.HasPrefix(script, "Let's study gravity.") {
		t.Errorf("script does not open with intro line: %q", script[:40])
	}
	if !strings.Contains(script, "Quiz time. Card 7 ... Think about it ... The answer is: Because of gravity.") {
		t.Error("script missing quiz cue")
	}
	if !strings.Contains(script, "Summary. Card 13.") {
		t.Error("script missing summary cue")
	}
}

func TestSynthesizeTTSFailure(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{SynthesizeErr: errors.New("connection refused")}
	s := narrate.NewSynthesizer(p, tts.Voice{})

	_, err := s.Synthesize(context.Background(), "gravity", sequence(12))
	if !errors.Is(err, narrate.ErrTTSUnavailable) {
		t.Fatalf("Synthesize() = %v, want ErrTTSUnavailable", err)
	}
	// One call, no automatic retry or fallback.
	if p.CallCount() != 1 {
		t.Errorf("TTS calls = %d, want 1", p.CallCount())
	}
}

func TestSynthesizeProducesWAV(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{SynthesizeClip: clipOf(10)}
	s := narrate.NewSynthesizer(p, tts.Voice{ID: "alloy"})

	nar, err := s.Synthesize(context.Background(), "gravity", sequence(12))
	if err != nil {
		t.Fatalf("Synthesize() error = %v, want nil", err)
	}
	info, err := audio.ParseWAV(nar.Audio)
	if err != nil {
		t.Fatalf("ParseWAV() error = %v, want nil", err)
	}
	if info.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", info.SampleRate)
	}
	if got := nar.Duration.Seconds(); got != 10 {
		t.Errorf("Duration = %vs, want 10s", got)
	}
}
