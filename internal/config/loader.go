package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Configuration defaults. The listen address matches the port the game
// client scripts are shipped with.
const (
	DefaultListenAddr       = ":3000"
	DefaultMaxBubbleChars   = 240
	DefaultMaxTokens        = 128
	DefaultMaxTokensCeiling = 256
	DefaultTemperature      = 0.7
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"completion": {"openai"},
	"speech":     {"elevenlabs"},
	"notify":     {"callmebot"},
}

// Load builds a validated [Config] by layering, in order: built-in defaults,
// the optional YAML file at path (skipped when path is empty), and
// environment variable overrides. Environment always wins so that deployment
// platforms can override a checked-in config file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Environment overrides are not applied; useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := decode(r, cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode parses YAML from r into cfg, rejecting unknown fields.
func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return nil
}

// applyEnv overlays environment variables onto cfg. Setting a provider API
// key via environment also selects the default provider for that stage when
// no name was configured, so a file-less deployment works from environment
// alone.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NPCRELAY_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.Server.ListenAddr = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = LogLevel(v)
	}
	if v := os.Getenv("DEBUG_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.Debug = b
		}
	}
	if v := os.Getenv("SHARED_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.Completion.APIKey = v
		if cfg.Providers.Completion.Name == "" {
			cfg.Providers.Completion.Name = "openai"
		}
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Providers.Completion.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Providers.Completion.BaseURL = v
	}

	if v := os.Getenv("ELEVEN_API_KEY"); v != "" {
		cfg.Providers.Speech.APIKey = v
		if cfg.Providers.Speech.Name == "" {
			cfg.Providers.Speech.Name = "elevenlabs"
		}
	}
	if v := os.Getenv("ELEVEN_VOICE_ID"); v != "" {
		cfg.Providers.Speech.Voice = v
	}
	if v := os.Getenv("ELEVEN_MODEL"); v != "" {
		cfg.Providers.Speech.Model = v
	}

	if v := os.Getenv("NOTIFY_API_KEY"); v != "" {
		cfg.Providers.Notify.APIKey = v
		if cfg.Providers.Notify.Name == "" {
			cfg.Providers.Notify.Name = "callmebot"
		}
	}
	if v := os.Getenv("NOTIFY_BASE_URL"); v != "" {
		cfg.Providers.Notify.BaseURL = v
	}
}

// applyDefaults fills zero-valued settings with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Chat.MaxBubbleChars == 0 {
		cfg.Chat.MaxBubbleChars = DefaultMaxBubbleChars
	}
	if cfg.Chat.DefaultMaxTokens == 0 {
		cfg.Chat.DefaultMaxTokens = DefaultMaxTokens
	}
	if cfg.Chat.MaxTokensCeiling == 0 {
		cfg.Chat.MaxTokensCeiling = DefaultMaxTokensCeiling
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = DefaultTemperature
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("completion", cfg.Providers.Completion.Name)
	validateProviderName("speech", cfg.Providers.Speech.Name)
	validateProviderName("notify", cfg.Providers.Notify.Name)

	if cfg.Providers.Completion.Name == "" {
		errs = append(errs, errors.New("providers.completion is required; chat requests cannot be served without a completion provider"))
	}
	if cfg.Providers.Speech.Name != "" && cfg.Providers.Speech.Voice == "" {
		errs = append(errs, errors.New("providers.speech.voice is required when a speech provider is configured"))
	}
	if cfg.Providers.Speech.Name == "" {
		slog.Warn("no speech provider configured; replies will be broadcast text-only")
	}

	if cfg.Chat.MaxBubbleChars < 0 {
		errs = append(errs, fmt.Errorf("chat.max_bubble_chars %d must not be negative", cfg.Chat.MaxBubbleChars))
	}
	if cfg.Chat.DefaultMaxTokens < 0 || cfg.Chat.MaxTokensCeiling < 0 {
		errs = append(errs, errors.New("chat token budgets must not be negative"))
	}
	if cfg.Chat.DefaultMaxTokens > cfg.Chat.MaxTokensCeiling {
		errs = append(errs, fmt.Errorf("chat.default_max_tokens %d exceeds chat.max_tokens_ceiling %d",
			cfg.Chat.DefaultMaxTokens, cfg.Chat.MaxTokensCeiling))
	}
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature %.2f is out of range [0, 2]", cfg.Chat.Temperature))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
