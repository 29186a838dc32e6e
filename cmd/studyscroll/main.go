// Command studyscroll is the StudyScroll study-feed server: it turns topics
// into card decks with narration and serves them over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyscroll/studyscroll/internal/config"
	"github.com/studyscroll/studyscroll/internal/generate"
	"github.com/studyscroll/studyscroll/internal/health"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/observe"
	"github.com/studyscroll/studyscroll/internal/pipeline"
	"github.com/studyscroll/studyscroll/internal/resilience"
	"github.com/studyscroll/studyscroll/internal/server"
	"github.com/studyscroll/studyscroll/internal/session"
	"github.com/studyscroll/studyscroll/pkg/provider/llm"
	"github.com/studyscroll/studyscroll/pkg/provider/tts"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "studyscroll: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "studyscroll: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("studyscroll starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry.
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "studyscroll",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// Providers.
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	llmEntries, err := buildLLMProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build llm providers", "err", err)
		return 1
	}
	ttsProvider, err := buildTTSProvider(cfg, reg)
	if err != nil {
		slog.Error("failed to build tts provider", "err", err)
		return 1
	}

	// Session store.
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise session store", "err", err)
		return 1
	}
	defer closeStore()

	// Pipeline.
	gen := generate.New(generate.Config{
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Attempts:    cfg.Generator.Attempts,
		Metrics:     metrics,
	}, llmEntries...)

	var synth pipeline.Synthesizer
	if ttsProvider != nil {
		synth = narrate.NewSynthesizer(ttsProvider, tts.Voice{
			ID:    cfg.Narration.Voice,
			Speed: cfg.Narration.Speed,
		})
	}
	pipe := pipeline.New(gen, synth, store, metrics)

	// Health checks.
	checker := health.New()
	checker.AddCheck("store", func(ctx context.Context) error {
		_, err := store.Exists(ctx, "healthcheck-probe")
		return err
	})
	checker.AddCheck("providers", func(context.Context) error {
		if len(llmEntries) == 0 {
			return errors.New("no llm providers configured")
		}
		return nil
	})

	printStartupSummary(cfg)

	srv := server.New(serverConfig(cfg), pipe, store, metrics, checker)

	slog.Info("server ready, press Ctrl+C to shut down")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// serverConfig maps the loaded config onto the server settings.
func serverConfig(cfg *config.Config) server.Config {
	sc := server.Config{
		ListenAddr:    cfg.Server.ListenAddr,
		MaxConcurrent: int64(cfg.Server.MaxConcurrentGenerations),
	}
	if sc.ListenAddr == "" {
		sc.ListenAddr = ":8000"
	}
	if cfg.Server.TLS != nil {
		sc.CertFile = cfg.Server.TLS.CertFile
		sc.KeyFile = cfg.Server.TLS.KeyFile
	}
	return sc
}

// buildLLMProviders instantiates every configured LLM backend in priority
// order.
func buildLLMProviders(cfg *config.Config, reg *config.Registry) ([]resilience.Entry[llm.Provider], error) {
	entries := make([]resilience.Entry[llm.Provider], 0, len(cfg.Providers.LLM))
	for _, pe := range cfg.Providers.LLM {
		p, err := reg.CreateLLM(pe)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", pe.Name, err)
		}
		entries = append(entries, resilience.Entry[llm.Provider]{Name: pe.Name, Value: p})
		slog.Info("provider created", "kind", "llm", "name", pe.Name, "model", pe.Model)
	}
	return entries, nil
}

// buildTTSProvider instantiates the configured TTS backend, or returns nil
// when narration is disabled.
func buildTTSProvider(cfg *config.Config, reg *config.Registry) (tts.Provider, error) {
	name := cfg.Providers.TTS.Name
	if name == "" {
		return nil, nil
	}
	p, err := reg.CreateTTS(cfg.Providers.TTS, cfg.Narration)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", name, err)
	}
	slog.Info("provider created", "kind", "tts", "name", name)
	return p, nil
}

// buildStore selects the PostgreSQL store when a DSN is configured and the
// filesystem store otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pg, err := session.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("session store ready", "backend", "postgres")
		return pg, pg.Close, nil
	}

	dir := cfg.Storage.Dir
	if dir == "" {
		dir = "sessions"
	}
	fs, err := session.NewFSStore(dir)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("session store ready", "backend", "filesystem", "dir", dir)
	return fs, func() {}, nil
}

// printStartupSummary writes a human-oriented overview to stdout.
func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       StudyScroll startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	for i, p := range cfg.Providers.LLM {
		label := fmt.Sprintf("LLM #%d", i+1)
		printProvider(label, p.Name, p.Model)
	}
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	backend := "filesystem"
	if cfg.Storage.PostgresDSN != "" {
		backend = "postgres"
	}
	fmt.Printf("║  Storage         : %-19s║\n", backend)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "..."
	}
	fmt.Printf("║  %-12s    : %-19s║\n", kind, value)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
