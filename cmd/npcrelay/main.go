// Command npcrelay is the NPC chat relay server: it bridges game clients to
// a chat completion API, optionally synthesizes speech for replies, fans the
// audio out to WebSocket listeners, and fires phone notifications when a
// player leaves a number in chat.
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

	"github.com/joho/godotenv"

	"github.com/blockparty-gg/npcrelay/internal/app"
	"github.com/blockparty-gg/npcrelay/internal/config"
	"github.com/blockparty-gg/npcrelay/internal/observe"
	"github.com/blockparty-gg/npcrelay/internal/resilience"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm/openai"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify/callmebot"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts/elevenlabs"
)

// version is stamped by the build; "dev" otherwise.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to an optional YAML configuration file; environment variables always override it")
	flag.Parse()

	// A .env file next to the binary is a convenience for local runs.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "npcrelay: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "npcrelay: %v\n", err)
		}
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	if cfg.Server.AuthToken == "" {
		slog.Warn("no shared token configured, authentication is disabled")
	}

	slog.Info("npcrelay starting",
		"version", version,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers must be live before any metrics instance is built.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "npcrelay",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	printStartupSummary(cfg)

	application, err := app.New(cfg, providers, logger, observe.DefaultMetrics())
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires the provider factories that ship with the
// relay into reg. Each factory receives a config.ProviderEntry and constructs
// the provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterCompletion("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterSpeech("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterNotify("callmebot", func(entry config.ProviderEntry) (notify.Provider, error) {
		var opts []callmebot.Option
		if entry.BaseURL != "" {
			opts = append(opts, callmebot.WithBaseURL(entry.BaseURL))
		}
		return callmebot.New(entry.APIKey, opts...)
	})
}

// buildProviders instantiates the providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to
// consume. The completion provider is mandatory; speech and notify stages
// are skipped when unconfigured.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	name := cfg.Providers.Completion.Name
	p, err := reg.CreateCompletion(cfg.Providers.Completion)
	if err != nil {
		return nil, fmt.Errorf("create completion provider %q: %w", name, err)
	}
	ps.Completion = p
	slog.Info("provider created", "kind", "completion", "name", name)

	if name := cfg.Providers.Speech.Name; name != "" {
		sp, err := reg.CreateSpeech(cfg.Providers.Speech)
		if err != nil {
			return nil, fmt.Errorf("create speech provider %q: %w", name, err)
		}
		if el, ok := sp.(*elevenlabs.Provider); ok {
			ps.SpeechFormat = el.OutputFormat()
		}
		// Short-circuit synthesis while the upstream is down; the chat path
		// degrades to text-only broadcasts.
		ps.Speech = resilience.GuardSpeech(sp, name)
		ps.SpeechVoice = tts.VoiceProfile{
			ID:       cfg.Providers.Speech.Voice,
			Provider: name,
		}
		slog.Info("provider created", "kind", "speech", "name", name, "voice", cfg.Providers.Speech.Voice)
	}

	if name := cfg.Providers.Notify.Name; name != "" {
		np, err := reg.CreateNotify(cfg.Providers.Notify)
		if err != nil {
			return nil, fmt.Errorf("create notify provider %q: %w", name, err)
		}
		ps.Notifier = resilience.GuardNotify(np, name)
		slog.Info("provider created", "kind", "notify", "name", name)
	}

	return ps, nil
}

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         npcrelay startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Completion", cfg.Providers.Completion.Name, cfg.Providers.Completion.Model)
	printProvider("Speech", cfg.Providers.Speech.Name, cfg.Providers.Speech.Model)
	printProvider("Notify", cfg.Providers.Notify.Name, "")
	if cfg.Server.AuthToken != "" {
		fmt.Printf("║  Auth            : %-19s ║\n", "shared token")
	} else {
		fmt.Printf("║  Auth            : %-19s ║\n", "(disabled)")
	}
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
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
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
