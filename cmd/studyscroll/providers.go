package main

import (
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/studyscroll/studyscroll/internal/config"
	"github.com/studyscroll/studyscroll/pkg/provider/llm"
	"github.com/studyscroll/studyscroll/pkg/provider/llm/anyllm"
	llmopenai "github.com/studyscroll/studyscroll/pkg/provider/llm/openai"
	"github.com/studyscroll/studyscroll/pkg/provider/tts"
	"github.com/studyscroll/studyscroll/pkg/provider/tts/coqui"
	"github.com/studyscroll/studyscroll/pkg/provider/tts/elevenlabs"
	ttsopenai "github.com/studyscroll/studyscroll/pkg/provider/tts/openai"
)

// anyllmBackends are the LLM provider names routed through any-llm-go.
// OpenAI is not among them: it goes through the direct SDK backend, which
// also serves OpenAI-compatible gateways via base_url.
var anyllmBackends = []string{"gemini", "anthropic", "deepseek", "mistral", "groq"}

// registerBuiltinProviders wires the built-in provider factories into the
// registry. Registration is cheap; nothing connects until Create* is called
// for a configured entry.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	llmTimeout := 20 * time.Second
	if cfg.Generator.TimeoutSeconds > 0 {
		llmTimeout = time.Duration(cfg.Generator.TimeoutSeconds) * time.Second
	}

	for _, name := range anyllmBackends {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var backendOpts []anyllmlib.Option
			if entry.APIKey != "" {
				backendOpts = append(backendOpts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				backendOpts = append(backendOpts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, backendOpts, anyllm.WithTimeout(llmTimeout))
		})
	}

	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		opts := []llmopenai.Option{llmopenai.WithTimeout(llmTimeout)}
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})

	// Ollama runs locally and needs no API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var backendOpts []anyllmlib.Option
		if entry.BaseURL != "" {
			backendOpts = append(backendOpts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, backendOpts, anyllm.WithTimeout(llmTimeout))
	})

	reg.RegisterTTS("openai", func(entry config.ProviderEntry, nc config.NarrationConfig) (tts.Provider, error) {
		opts := []ttsopenai.Option{ttsopenai.WithTimeout(narrationTimeout(nc))}
		if entry.Model != "" {
			opts = append(opts, ttsopenai.WithModel(entry.Model))
		}
		return ttsopenai.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry, nc config.NarrationConfig) (tts.Provider, error) {
		opts := []elevenlabs.Option{elevenlabs.WithTimeout(narrationTimeout(nc))}
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry, nc config.NarrationConfig) (tts.Provider, error) {
		return coqui.New(entry.BaseURL, coqui.WithTimeout(narrationTimeout(nc))), nil
	})
}

func narrationTimeout(nc config.NarrationConfig) time.Duration {
	if nc.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(nc.TimeoutSeconds) * time.Second
}
