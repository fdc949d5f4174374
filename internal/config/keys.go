package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// keySpec binds one dotted setting name to its env override and Config field.
// Secret keys live in Secrets under the same name and are never written to
// Settings.
type keySpec struct {
	key     string
	env     string
	secret  bool
	parse   func(raw string) (any, error)
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", env: "BRAINSTORM_SERVER_PORT", parse: parsePort,
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", env: "BRAINSTORM_STORAGE_DATA_DIR", parse: parseText,
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "completion.base_url", env: "BRAINSTORM_COMPLETION_BASE_URL", parse: parseText,
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = strings.TrimRight(v.(string), "/") },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.model", env: "BRAINSTORM_COMPLETION_MODEL", parse: parseText,
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: "completion.timeout", env: "BRAINSTORM_COMPLETION_TIMEOUT", parse: parseTimeout,
		apply:   func(cfg *Config, v any) { cfg.Completion.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Timeout },
	},
	{
		key: "assist.max_in_flight", env: "BRAINSTORM_ASSIST_MAX_IN_FLIGHT", parse: parsePositive,
		apply:   func(cfg *Config, v any) { cfg.Assist.MaxInFlight = v.(int) },
		extract: func(cfg Config) any { return cfg.Assist.MaxInFlight },
	},
	{
		key: "log.level", env: "BRAINSTORM_LOG_LEVEL", parse: parseLevel,
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: AccountAPIToken, env: "BRAINSTORM_API_TOKEN", secret: true, parse: parseText,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: AccountCompletionKey, env: "BRAINSTORM_COMPLETION_API_KEY", secret: true, parse: parseText,
		apply:   func(cfg *Config, v any) { cfg.Completion.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.APIKey },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

func parseText(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("value must not be empty")
	}
	return raw, nil
}

func parsePort(raw string) (any, error) {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %w", err)
	}
	if p < 1 || p > 65535 {
		return nil, fmt.Errorf("port %d out of range 1..65535", p)
	}
	return p, nil
}

func parsePositive(raw string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %w", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("%d must be at least 1", n)
	}
	return n, nil
}

func parseTimeout(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, fmt.Errorf("timeout %s must be positive", d)
	}
	return raw, nil
}

func parseLevel(raw string) (any, error) {
	lvl := strings.ToLower(strings.TrimSpace(raw))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		return lvl, nil
	}
	return nil, fmt.Errorf("unknown log level %q", raw)
}

// applySettings copies every stored non-secret setting into cfg. A stored
// value that no longer parses fails the load.
func applySettings(cfg *Config, st Settings) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok, err := st.Lookup(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			return fmt.Errorf("setting %s: %w", s.key, err)
		}
		s.apply(cfg, v)
	}
	return nil
}

// applyEnvOverrides lets BRAINSTORM_* variables win over stored settings. An
// override that does not parse is logged and skipped.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			slog.Warn("ignoring environment override", "env", s.env, "value", raw, "err", err)
			continue
		}
		s.apply(cfg, v)
	}
}

// applySecrets fills secret keys that are still empty from the secret store.
func applySecrets(cfg *Config, sec Secrets) error {
	for _, s := range specs {
		if !s.secret {
			continue
		}
		if cur, _ := s.extract(*cfg).(string); cur != "" {
			continue
		}
		v, err := sec.Get(s.key)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading secret %s: %w", s.key, err)
		}
		if v != "" {
			s.apply(cfg, v)
		}
	}
	return nil
}
