// Package openai provides a TTS provider backed by the OpenAI speech API.
//
// Synthesis requests PCM output (24 kHz, 16-bit, mono) so the caller can
// measure the clip duration directly from the byte count.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/studyscroll/studyscroll/pkg/provider/tts"
)

const (
	defaultModel = oai.SpeechModelGPT4oMiniTTS

	// pcmSampleRate is the fixed sample rate of the OpenAI PCM response format.
	pcmSampleRate = 24000

	// defaultTimeout bounds a single synthesis call. Full-session scripts run
	// to a few thousand characters, so this is longer than the LLM timeout.
	defaultTimeout = 60 * time.Second
)

// Option is a functional option for Provider.
type Option func(*Provider)

// WithModel sets the OpenAI speech model (e.g., "tts-1", "gpt-4o-mini-tts").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = oai.SpeechModel(model)
	}
}

// WithTimeout sets the bounded per-call HTTP timeout. Default 60s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// Provider implements tts.Provider backed by the OpenAI speech endpoint.
type Provider struct {
	client  oai.Client
	model   oai.SpeechModel
	timeout time.Duration
}

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// New creates a new OpenAI TTS Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai tts: apiKey must not be empty")
	}
	p := &Provider{
		model:   defaultModel,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	p.client = oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: p.timeout}),
	)
	return p, nil
}

// Synthesize implements tts.Provider. The whole script is submitted as one
// request and the PCM body is read to completion.
func (p *Provider) Synthesize(ctx context.Context, script string, voice tts.Voice) (*tts.Clip, error) {
	if script == "" {
		return nil, fmt.Errorf("openai tts: script must not be empty")
	}

	voiceID := oai.AudioSpeechNewParamsVoice(voice.ID)
	if voice.ID == "" {
		voiceID = oai.AudioSpeechNewParamsVoiceAlloy
	}

	params := oai.AudioSpeechNewParams{
		Model:          p.model,
		Input:          script,
		Voice:          voiceID,
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if voice.Speed != 0 {
		params.Speed = param.NewOpt(voice.Speed)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai tts: synthesize: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read audio body: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("openai tts: empty audio response")
	}

	return &tts.Clip{
		PCM:        pcm,
		SampleRate: pcmSampleRate,
		Channels:   1,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return "openai"
}
