// Package config provides the configuration schema, loader, and provider
// registry for the NPC chat relay.
package config

import "log/slog"

// LogLevel controls log verbosity for the relay server.
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

// Level maps l to the corresponding [slog.Level]. Unrecognised values map
// to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for the relay.
// It is typically loaded via [Load], which merges an optional YAML file with
// environment variable overrides.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Chat      ChatConfig      `yaml:"chat"`
}

// ServerConfig holds network, logging, and authentication settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":3000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Debug enables the debug endpoints (e.g., /debug-env). Never enable
	// in production.
	Debug bool `yaml:"debug"`

	// AuthToken is the shared secret expected in the X-Auth-Token header of
	// chat requests. When empty, authentication is disabled.
	AuthToken string `yaml:"auth_token"`
}

// ProvidersConfig declares which provider implementation to use for each
// relay stage. Each field selects a named provider registered in the
// [Registry]. Speech and Notify are optional: an empty Name disables the
// stage.
type ProvidersConfig struct {
	Completion ProviderEntry `yaml:"completion"`
	Speech     ProviderEntry `yaml:"speech"`
	Notify     ProviderEntry `yaml:"notify"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "elevenlabs", "callmebot").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "eleven_multilingual_v2").
	Model string `yaml:"model"`

	// Voice is the provider-specific voice identifier for speech providers.
	Voice string `yaml:"voice"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// ChatConfig bounds the completion stage.
type ChatConfig struct {
	// MaxBubbleChars is the reply-length limit communicated to the model via
	// the system prompt. It mirrors the game client's chat bubble capacity.
	MaxBubbleChars int `yaml:"max_bubble_chars"`

	// DefaultMaxTokens is the completion token budget used when the caller
	// does not request one.
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// MaxTokensCeiling caps the caller-requested token budget.
	MaxTokensCeiling int `yaml:"max_tokens_ceiling"`

	// Temperature is the sampling temperature passed to the model.
	Temperature float64 `yaml:"temperature"`
}
