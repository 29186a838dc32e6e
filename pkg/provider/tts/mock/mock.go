// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to return a controlled Clip and to verify the script and Voice
// that callers pass to the TTS backend.
//
// Example:
//
//	p := &mock.Provider{
//	    SynthesizeClip: &tts.Clip{PCM: make([]byte, 48000), SampleRate: 24000, Channels: 1},
//	}
//	clip, _ := p.Synthesize(ctx, "Let's study compilers.", tts.Voice{ID: "alloy"})
package mock

import (
	"context"
	"sync"

	"github.com/studyscroll/studyscroll/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Script is the narration script passed to Synthesize.
	Script string
	// Voice is the Voice passed to Synthesize.
	Voice tts.Voice
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// ProviderName is returned by Name. Defaults to "mock" when empty.
	ProviderName string

	// SynthesizeClip is returned by Synthesize when SynthesizeErr is nil.
	SynthesizeClip *tts.Clip

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeFunc, if non-nil, overrides SynthesizeClip/SynthesizeErr and is
	// called with the invocation count (starting at 0). Useful for providers
	// that should fail a number of times before succeeding.
	SynthesizeFunc func(call int, script string, voice tts.Voice) (*tts.Clip, error)

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, script string, voice tts.Voice) (*tts.Clip, error) {
	p.mu.Lock()
	call := len(p.SynthesizeCalls)
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{
		Ctx:    ctx,
		Script: script,
		Voice:  voice,
	})
	fn := p.SynthesizeFunc
	clip, err := p.SynthesizeClip, p.SynthesizeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(call, script, voice)
	}
	if err != nil {
		return nil, err
	}
	return clip, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	if p.ProviderName == "" {
		return "mock"
	}
	return p.ProviderName
}

// CallCount returns the number of Synthesize invocations recorded so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SynthesizeCalls)
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}
