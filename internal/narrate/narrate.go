// Package narrate turns a card sequence into spoken audio with per-card
// timing.
//
// The whole deck is rendered as one script and synthesized in a single TTS
// call, preserving one coherent audio stream instead of stitching per-card
// clips with audible seams. Because TTS backends report only aggregate
// duration, per-card offsets are estimated proportionally to each card's
// character share of the script. The estimate is approximate by contract:
// ordering and coverage are guaranteed, exact offsets are not.
package narrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/pkg/audio"
	"github.com/studyscroll/studyscroll/pkg/provider/tts"
)

// ErrTTSUnavailable is returned when the TTS backend fails. The caller
// decides whether to retry the pipeline or keep the session text-only; there
// is no automatic fallback to another TTS provider.
var ErrTTSUnavailable = errors.New("tts backend unavailable")

// Span maps one card to a time range within the narration audio, in seconds.
type Span struct {
	Order int     `json:"order"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Alignment is the per-card timing for a narration: spans are non-overlapping,
// monotonically increasing by Order, and together cover the full audio
// duration minus the leading intro.
type Alignment []Span

// Narration is the result of synthesizing one card sequence.
type Narration struct {
	// Audio is the narration encoded as a WAV file.
	Audio []byte
	// Duration is the measured length of the audio.
	Duration time.Duration
	// Alignment is the per-card timing.
	Alignment Alignment
}

// Synthesizer produces narrations through a single TTS provider.
type Synthesizer struct {
	provider tts.Provider
	voice    tts.Voice
}

// NewSynthesizer builds a Synthesizer using provider and voice for every
// request.
func NewSynthesizer(provider tts.Provider, voice tts.Voice) *Synthesizer {
	return &Synthesizer{provider: provider, voice: voice}
}

// Synthesize builds the narration script for cards, performs one TTS call,
// and computes the proportional alignment against the measured duration. TTS
// failures are wrapped in [ErrTTSUnavailable].
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, cards deck.Sequence) (*Narration, error) {
	if len(cards) == 0 {
		return nil, errors.New("narrate: no cards to synthesize")
	}

	script, segments := buildScript(topic, cards)
	clip, err := s.provider.Synthesize(ctx, script, s.voice)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTTSUnavailable, s.provider.Name(), err)
	}

	duration := clip.Duration()
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %s returned empty audio", ErrTTSUnavailable, s.provider.Name())
	}

	wav := audio.EncodeWAV(clip.PCM, clip.SampleRate, clip.Channels)

	alignment := align(segments, len([]rune(script)), duration)
	slog.Info("narration synthesized",
		"provider", s.provider.Name(),
		"topic", topic,
		"cards", len(cards),
		"duration", duration)

	return &Narration{
		Audio:     wav,
		Duration:  duration,
		Alignment: alignment,
	}, nil
}

// maxLeadingSilence is the largest fraction of the clip the intro may leave
// uncovered; the first span is pulled forward when the intro's character
// share exceeds it, so the spans always cover at least 95% of the audio.
const maxLeadingSilence = 0.05

// align distributes total audio duration across segments proportionally to
// their rune offsets within the script. Each span runs from its card's
// offset fraction to the next card's; the last span ends at the full
// duration, so the spans tile the audio after the intro with no gaps.
func align(segments []segment, scriptLen int, total time.Duration) Alignment {
	secs := total.Seconds()
	spans := make(Alignment, len(segments))
	for i, seg := range segments {
		start := secs * float64(seg.start) / float64(scriptLen)
		end := secs
		if i+1 < len(segments) {
			end = secs * float64(segments[i+1].start) / float64(scriptLen)
		}
		spans[i] = Span{Order: seg.order, Start: start, End: end}
	}

	// A long topic over very short cards can push the intro's share past the
	// coverage floor; clamp the first span's start rather than let the
	// uncovered lead grow with the topic.
	if maxLead := secs * maxLeadingSilence; spans[0].Start > maxLead {
		spans[0].Start = maxLead
	}
	return spans
}
