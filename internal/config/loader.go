package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"gemini", "anthropic", "openai", "ollama", "deepseek", "mistral", "groq"},
	"tts": {"openai", "elevenlabs", "coqui"},
}

// cloudProviders are the providers that cannot work without an API key.
var cloudProviders = []string{"gemini", "anthropic", "openai", "deepseek", "mistral", "groq", "elevenlabs"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxConcurrentGenerations < 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent_generations %d must not be negative", cfg.Server.MaxConcurrentGenerations))
	}

	// LLM providers: at least one, no duplicates, known names.
	if len(cfg.Providers.LLM) == 0 {
		errs = append(errs, errors.New("providers.llm must list at least one provider"))
	}
	namesSeen := make(map[string]int, len(cfg.Providers.LLM))
	for i, p := range cfg.Providers.LLM {
		prefix := fmt.Sprintf("providers.llm[%d]", i)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := namesSeen[p.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers.llm[%d]", prefix, p.Name, prev))
		}
		namesSeen[p.Name] = i
		validateProviderName("llm", p.Name)
		warnMissingKey("llm", p)
	}

	// TTS provider
	if cfg.Providers.TTS.Name != "" {
		validateProviderName("tts", cfg.Providers.TTS.Name)
		warnMissingKey("tts", cfg.Providers.TTS)
		if cfg.Providers.TTS.Name == "coqui" && cfg.Providers.TTS.BaseURL == "" {
			errs = append(errs, errors.New("providers.tts.base_url is required when name is coqui"))
		}
	} else {
		slog.Warn("providers.tts is not configured; sessions will be generated without narration")
	}

	// Generator
	if t := cfg.Generator.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("generator.temperature %.2f is out of range [0, 2]", t))
	}
	if cfg.Generator.Attempts < 0 {
		errs = append(errs, fmt.Errorf("generator.attempts %d must not be negative", cfg.Generator.Attempts))
	}
	if ts := cfg.Generator.TimeoutSeconds; ts != 0 && (ts < 10 || ts > 30) {
		errs = append(errs, fmt.Errorf("generator.timeout_seconds %d is out of range [10, 30]", ts))
	}

	// Narration
	if sp := cfg.Narration.Speed; sp != 0 && (sp < 0.5 || sp > 2.0) {
		errs = append(errs, fmt.Errorf("narration.speed %.2f is out of range [0.5, 2.0]", sp))
	}
	if cfg.Narration.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("narration.timeout_seconds %d must not be negative", cfg.Narration.TimeoutSeconds))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// warnMissingKey logs a warning when a cloud provider is configured without
// an API key.
func warnMissingKey(kind string, p ProviderEntry) {
	if p.APIKey != "" {
		return
	}
	if slices.Contains(cloudProviders, p.Name) {
		slog.Warn("provider configured without api_key",
			"kind", kind,
			"name", p.Name,
		)
	}
}
