// Package config provides the configuration schema, loader, and provider
// registry for the StudyScroll service.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Generator GeneratorConfig `yaml:"generator"`
	Narration NarrationConfig `yaml:"narration"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MaxConcurrentGenerations bounds how many pipeline runs may be in
	// flight at once. Default 4.
	MaxConcurrentGenerations int `yaml:"max_concurrent_generations"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares the model backends. LLM providers are listed in
// fallback priority order: the first entry is the primary.
type ProvidersConfig struct {
	LLM []ProviderEntry `yaml:"llm"`
	TTS ProviderEntry   `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini",
	// "anthropic", "openai", "elevenlabs", "coqui").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. For coqui it is
	// the local server URL and is required.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "gemini-2.5-flash", "claude-sonnet-4-6").
	Model string `yaml:"model"`
}

// GeneratorConfig tunes card generation.
type GeneratorConfig struct {
	// Temperature for every completion request. Default 0.7.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens for every completion request. Default 4096.
	MaxTokens int `yaml:"max_tokens"`

	// Attempts per provider before failing over. Default 2.
	Attempts int `yaml:"attempts"`

	// TimeoutSeconds bounds a single provider call. Valid range [10, 30],
	// default 20.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// NarrationConfig tunes the TTS stage.
type NarrationConfig struct {
	// Voice identifies the voice at the configured TTS provider.
	Voice string `yaml:"voice"`

	// Speed is the speaking rate factor. Valid range [0.5, 2.0]; zero means
	// the provider default.
	Speed float64 `yaml:"speed"`

	// TimeoutSeconds bounds the synthesis call. Default 60.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// StorageConfig selects and configures the session store.
type StorageConfig struct {
	// Dir is the directory for the filesystem store. Default "sessions".
	Dir string `yaml:"dir"`

	// PostgresDSN, when non-empty, selects the PostgreSQL store instead of
	// the filesystem one.
	PostgresDSN string `yaml:"postgres_dsn"`
}
