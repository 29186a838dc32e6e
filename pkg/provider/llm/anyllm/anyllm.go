// Package anyllm provides a universal LLM provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports Gemini, Anthropic, OpenAI, Ollama, DeepSeek, Mistral, Groq, and more.
//
// The card pipeline's default configuration uses this package for its primary
// (Gemini) and secondary (Anthropic) backends:
//
//	p, err := anyllm.NewGemini("gemini-2.5-flash", []anyllmlib.Option{anyllmlib.WithAPIKey("...")})
//	p, err := anyllm.NewAnthropic("claude-sonnet-4-5", []anyllmlib.Option{anyllmlib.WithAPIKey("...")})
package anyllm

import (
	"context"
	"fmt"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/studyscroll/studyscroll/pkg/provider/llm"
)

// defaultTimeout bounds a single completion call when no explicit timeout is
// configured. Card generation responses are large, so this sits at the upper
// end of the sane range.
const defaultTimeout = 20 * time.Second

// Provider implements llm.Provider by wrapping github.com/mozilla-ai/any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	name    string
	model   string
	timeout time.Duration
}

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Option is a functional option for Provider.
type Option func(*Provider)

// WithTimeout sets the bounded per-call timeout. Values outside (0, 5m] are
// ignored and the default of 20s applies.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 && d <= 5*time.Minute {
			p.timeout = d
		}
	}
}

// New creates a Provider backed by the given LLM backend name.
//
// providerName is one of: "gemini", "anthropic", "openai", "ollama",
// "deepseek", "mistral", "groq".
//
// model is the specific model to use (e.g., "gemini-2.5-flash").
//
// backendOpts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). Without an API key option the backend falls back to
// its conventional environment variable (GEMINI_API_KEY, ANTHROPIC_API_KEY, …).
func New(providerName, model string, backendOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, backendOpts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	p := &Provider{
		backend: backend,
		name:    strings.ToLower(providerName),
		model:   model,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// NewGemini creates a Provider backed by Google Gemini.
// Without options, it reads the GEMINI_API_KEY or GOOGLE_API_KEY environment variable.
func NewGemini(model string, backendOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	return New("gemini", model, backendOpts, opts...)
}

// NewAnthropic creates a Provider backed by Anthropic.
// Without options, it reads the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(model string, backendOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	return New("anthropic", model, backendOpts, opts...)
}

// NewOpenAI creates a Provider backed by OpenAI.
// Without options, it reads the OPENAI_API_KEY environment variable.
func NewOpenAI(model string, backendOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	return New("openai", model, backendOpts, opts...)
}

// NewOllama creates a Provider backed by Ollama (local inference).
// Without options, it connects to http://localhost:11434.
func NewOllama(model string, backendOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	return New("ollama", model, backendOpts, opts...)
}

// createBackend creates the underlying any-llm-go provider for the given name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "gemini":
		return gemini.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: gemini, anthropic, openai, ollama, deepseek, mistral, groq", providerName)
	}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.backend.Completion(ctx, p.buildParams(req))
	if err != nil {
		if terr := llm.ClassifyContextErr(ctx.Err()); terr != nil {
			return nil, fmt.Errorf("%w: %s: %v", terr, p.name, err)
		}
		// any-llm-go does not expose structured HTTP errors across all
		// backends, so non-deadline failures classify as unavailable.
		return nil, fmt.Errorf("%w: %s: %v", llm.ErrUnavailable, p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s: empty choices", llm.ErrMalformedResponse, p.name)
	}

	content := resp.Choices[0].Message.ContentString()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s: empty content", llm.ErrMalformedResponse, p.name)
	}

	result := &llm.Response{Content: content}
	if resp.Usage != nil {
		result.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string {
	return p.name
}

// buildParams converts an llm.Request into any-llm-go completion parameters.
func (p *Provider) buildParams(req llm.Request) anyllmlib.CompletionParams {
	var messages []anyllmlib.Message

	if req.SystemPrompt != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: req.Prompt,
	})

	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}
	return params
}
