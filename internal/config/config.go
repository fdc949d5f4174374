package config

import (
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Completion CompletionConfig
	Assist     AssistConfig
	Log        LogConfig
	API        APIConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type CompletionConfig struct {
	BaseURL string
	Model   string
	Timeout string
	APIKey  string
}

type AssistConfig struct {
	MaxInFlight int
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	Token string
}

// TimeoutDuration parses Timeout, falling back to 60s when it is invalid.
func (c CompletionConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Completion: CompletionConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-3.5-turbo",
			Timeout: "60s",
		},
		Assist: AssistConfig{
			MaxInFlight: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load resolves the board configuration: defaults, then stored settings, then
// BRAINSTORM_* environment overrides, then secrets for any credential still
// unset.
//
// Settings live in UserDefaults (app.brainstorm.board) on macOS and in
// $XDG_CONFIG_HOME/brainstorm/settings.yaml elsewhere. Secrets live in the
// macOS Keychain or $XDG_DATA_HOME/brainstorm/secrets.yaml. A missing
// completion API key is not an error here; it surfaces when an AI action runs.
func Load() (Config, error) {
	return loadWith(NewSettings(), NewSecrets())
}

func loadWith(st Settings, sec Secrets) (Config, error) {
	cfg := defaults()
	if err := applySettings(&cfg, st); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	if err := applySecrets(&cfg, sec); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
