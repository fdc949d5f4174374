package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// memSecrets is an in-memory Secrets.
type memSecrets struct {
	values map[string]string
	getErr error
	setErr error
}

func (m *memSecrets) Get(account string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (m *memSecrets) Set(account, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[account] = value
	return nil
}

func (m *memSecrets) Delete(account string) error {
	delete(m.values, account)
	return nil
}

// memSettings is an in-memory Settings.
type memSettings struct {
	values map[string]string
	err    error
}

func newMemSettings() *memSettings {
	return &memSettings{values: map[string]string{}}
}

func (m *memSettings) Lookup(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettings) Put(key, raw string) error {
	m.values[key] = raw
	return nil
}

func (m *memSettings) Remove(key string) error {
	delete(m.values, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied with an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemSettings(), &memSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Completion.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Completion.BaseURL = %q", cfg.Completion.BaseURL)
	}
	if cfg.Completion.Model != "gpt-3.5-turbo" {
		t.Errorf("Completion.Model = %q", cfg.Completion.Model)
	}
	if cfg.Completion.TimeoutDuration() != 60*time.Second {
		t.Errorf("Completion.TimeoutDuration() = %v", cfg.Completion.TimeoutDuration())
	}
	if cfg.Assist.MaxInFlight != 4 {
		t.Errorf("Assist.MaxInFlight = %d, want 4", cfg.Assist.MaxInFlight)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

// TestMissingAPIKeyIsNotAnError verifies the server can start without a key.
func TestMissingAPIKeyIsNotAnError(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemSettings(), &memSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Completion.APIKey != "" {
		t.Errorf("Completion.APIKey = %q, want empty", cfg.Completion.APIKey)
	}
}

func TestStoredSettings(t *testing.T) {
	clearEnv(t)
	st := newMemSettings()
	st.values["server.port"] = "9000"
	st.values["assist.max_in_flight"] = "2"
	st.values["completion.model"] = "gpt-4o-mini"
	st.values["completion.base_url"] = "http://localhost:8080/v1/"
	st.values["storage.data_dir"] = "/tmp/brainstorm-test"
	st.values["completion.api_key"] = "should-be-ignored"

	cfg, err := loadWith(st, &memSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Assist.MaxInFlight != 2 {
		t.Errorf("Assist.MaxInFlight = %d, want 2", cfg.Assist.MaxInFlight)
	}
	if cfg.Completion.Model != "gpt-4o-mini" {
		t.Errorf("Completion.Model = %q", cfg.Completion.Model)
	}
	if cfg.Completion.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("Completion.BaseURL = %q, want trailing slash trimmed", cfg.Completion.BaseURL)
	}
	if cfg.Storage.DataDir != "/tmp/brainstorm-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Completion.APIKey != "" {
		t.Errorf("secret read from plain settings: %q", cfg.Completion.APIKey)
	}
}

func TestStoredSettingInvalid(t *testing.T) {
	clearEnv(t)
	st := newMemSettings()
	st.values["server.port"] = "70000"

	if _, err := loadWith(st, &memSecrets{}); err == nil {
		t.Fatal("expected error for out of range stored port")
	}
}

func TestSettingsError(t *testing.T) {
	clearEnv(t)
	st := newMemSettings()
	st.err = errors.New("defaults exploded")

	if _, err := loadWith(st, &memSecrets{}); err == nil {
		t.Fatal("expected error from failing settings backend")
	}
}

// TestEnvOverride verifies that environment variables override stored values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	st := newMemSettings()
	st.values["server.port"] = "9000"

	t.Setenv("BRAINSTORM_SERVER_PORT", "9100")
	t.Setenv("BRAINSTORM_COMPLETION_API_KEY", "env-key")
	t.Setenv("BRAINSTORM_LOG_LEVEL", "DEBUG")

	sec := &memSecrets{values: map[string]string{AccountCompletionKey: "stored-key"}}
	cfg, err := loadWith(st, sec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Completion.APIKey != "env-key" {
		t.Errorf("Completion.APIKey = %q, want env-key", cfg.Completion.APIKey)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestInvalidEnvKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRAINSTORM_SERVER_PORT", "not-a-port")
	t.Setenv("BRAINSTORM_ASSIST_MAX_IN_FLIGHT", "0")
	t.Setenv("BRAINSTORM_COMPLETION_TIMEOUT", "-5s")

	cfg, err := loadWith(newMemSettings(), &memSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default 4100", cfg.Server.Port)
	}
	if cfg.Assist.MaxInFlight != 4 {
		t.Errorf("Assist.MaxInFlight = %d, want default 4", cfg.Assist.MaxInFlight)
	}
	if cfg.Completion.Timeout != "60s" {
		t.Errorf("Completion.Timeout = %q, want default 60s", cfg.Completion.Timeout)
	}
}

func TestSecretsFallback(t *testing.T) {
	clearEnv(t)
	sec := &memSecrets{values: map[string]string{
		AccountCompletionKey: "stored-key",
		AccountAPIToken:      "tok",
	}}

	cfg, err := loadWith(newMemSettings(), sec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Completion.APIKey != "stored-key" {
		t.Errorf("Completion.APIKey = %q, want stored-key", cfg.Completion.APIKey)
	}
	if cfg.API.Token != "tok" {
		t.Errorf("API.Token = %q, want tok", cfg.API.Token)
	}
}

func TestSecretsStoreError(t *testing.T) {
	clearEnv(t)
	sec := &memSecrets{getErr: errors.New("parsing secrets.yaml: bad indent")}

	_, err := loadWith(newMemSettings(), sec)
	if err == nil {
		t.Fatal("expected unreadable secret store to fail the load")
	}
	if errors.Is(err, ErrSecretNotFound) {
		t.Errorf("store error reported as not-found: %v", err)
	}
}

func TestGetAPIToken(t *testing.T) {
	sec := &memSecrets{}

	first, err := GetAPIToken(sec)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if first == "" {
		t.Fatal("empty token")
	}
	second, err := GetAPIToken(sec)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if first != second {
		t.Errorf("token changed between calls: %q != %q", first, second)
	}

	if _, err := GetAPIToken(&memSecrets{setErr: errors.New("locked")}); err == nil {
		t.Error("expected error when the token cannot be stored")
	}

	// A read error is returned without generating a token.
	broken := &memSecrets{getErr: errors.New("corrupt")}
	if _, err := GetAPIToken(broken); err == nil {
		t.Error("expected error when the store cannot be read")
	}
	if len(broken.values) != 0 {
		t.Errorf("token written over unreadable store: %v", broken.values)
	}
}

func TestSetKey(t *testing.T) {
	st := newMemSettings()

	if err := SetKey(st, "server.port", " 4200 "); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if st.values["server.port"] != "4200" {
		t.Errorf("server.port = %q, want normalised 4200", st.values["server.port"])
	}
	if err := SetKey(st, "log.level", "WARN"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if st.values["log.level"] != "warn" {
		t.Errorf("log.level = %q", st.values["log.level"])
	}

	for _, tc := range []struct{ key, value string }{
		{"server.port", "abc"},
		{"server.port", "0"},
		{"assist.max_in_flight", "-1"},
		{"completion.timeout", "soon"},
		{"log.level", "loud"},
		{"completion.model", "  "},
		{"completion.api_key", "x"},
		{"api.token", "x"},
		{"nope", "x"},
	} {
		if err := SetKey(st, tc.key, tc.value); err == nil {
			t.Errorf("SetKey(%q, %q): expected error", tc.key, tc.value)
		}
	}
	if _, ok := st.values["completion.api_key"]; ok {
		t.Error("secret written to plain settings")
	}
}

func TestUnsetKey(t *testing.T) {
	clearEnv(t)
	st := newMemSettings()
	if err := SetKey(st, "server.port", "4200"); err != nil {
		t.Fatal(err)
	}
	if err := UnsetKey(st, "server.port"); err != nil {
		t.Fatalf("UnsetKey: %v", err)
	}
	cfg, err := loadWith(st, &memSecrets{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default after unset", cfg.Server.Port)
	}

	if err := UnsetKey(st, "completion.api_key"); err == nil {
		t.Error("expected error when unsetting a secret")
	}
	if err := UnsetKey(st, "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Completion.APIKey = "sk-secret"
	st := newMemSettings()
	st.values["completion.model"] = "gpt-4o"

	infos := ShowAll(cfg, st)
	for _, k := range infos {
		if k.Key == "completion.api_key" || k.Key == "api.token" || k.Value == "sk-secret" {
			t.Errorf("secret leaked: %+v", k)
		}
		if k.Stored != (k.Key == "completion.model") {
			t.Errorf("%s Stored = %v", k.Key, k.Stored)
		}
	}
	if len(infos) != len(ValidKeys()) {
		t.Errorf("ShowAll and ValidKeys disagree")
	}
}

func TestTimeoutDurationFallback(t *testing.T) {
	c := CompletionConfig{Timeout: "soon"}
	if c.TimeoutDuration() != 60*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 60s", c.TimeoutDuration())
	}
	c.Timeout = "5s"
	if c.TimeoutDuration() != 5*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 5s", c.TimeoutDuration())
	}
}
