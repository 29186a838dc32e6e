// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., OpenAI, ElevenLabs,
// or a local Coqui instance) and presents a uniform batch interface: the
// narration synthesizer submits one complete script and receives one coherent
// audio clip back. A single call per script avoids the cross-boundary
// artifacts of stitching per-card clips and keeps prosody consistent.
//
// All providers return raw int16 PCM so the caller can measure the clip
// duration exactly from the byte count. Per-card timing offsets are derived
// from the measured duration, not from provider metadata.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"time"

	"github.com/studyscroll/studyscroll/pkg/audio"
)

// Clip is one synthesised audio artifact.
type Clip struct {
	// PCM is little-endian signed 16-bit audio data.
	PCM []byte

	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the channel count. Narration providers emit mono (1).
	Channels int
}

// Duration returns the play time of the clip measured from its byte count.
func (c *Clip) Duration() time.Duration {
	d, err := audio.PCMDuration(len(c.PCM), c.SampleRate, c.Channels)
	if err != nil {
		return 0
	}
	return d
}

// Voice describes the voice configuration for a synthesis call.
type Voice struct {
	// ID is the provider-specific voice identifier (e.g., "alloy" for OpenAI,
	// an ElevenLabs voice UUID, or a Coqui speaker name).
	ID string

	// Speed adjusts speaking rate in the range [0.5, 2.0]. 0 means default.
	Speed float64
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Multiple synthesis requests
// may run in parallel (one per pipeline run).
type Provider interface {
	// Synthesize submits the full script in a single call and returns the
	// resulting clip. Implementations apply a bounded timeout and honour
	// context cancellation.
	Synthesize(ctx context.Context, script string, voice Voice) (*Clip, error)

	// Name returns a short stable identifier for this backend (e.g.,
	// "openai", "elevenlabs", "coqui"). Used in logs and metrics.
	Name() string
}
