//go:build !darwin

package config

import (
	"fmt"
	"path/filepath"
)

// secretsFile keeps board secrets in $XDG_DATA_HOME/brainstorm/secrets.yaml,
// written 0600. A file that fails to parse is an error, not an empty store.
type secretsFile struct {
	path string
}

func newPlatformSecrets() Secrets {
	return &secretsFile{path: secretsFilePath()}
}

func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), secretService, "secrets.yaml")
}

func (f *secretsFile) Get(account string) (string, error) {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return "", fmt.Errorf("secret store: %w", err)
	}
	v, ok := m[account]
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", account, ErrSecretNotFound)
	}
	return v, nil
}

func (f *secretsFile) Set(account, value string) error {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return fmt.Errorf("secret store: %w", err)
	}
	m[account] = value
	return writeYAMLMap(f.path, m)
}

func (f *secretsFile) Delete(account string) error {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return fmt.Errorf("secret store: %w", err)
	}
	if _, ok := m[account]; !ok {
		return nil
	}
	delete(m, account)
	return writeYAMLMap(f.path, m)
}
