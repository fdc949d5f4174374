//go:build !darwin

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "brainstorm")
}

// xdgDir resolves an XDG base directory, falling back to $HOME/<rel...> and
// then to the working directory.
func xdgDir(env string, rel ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, rel...)...)
}

// settingsFile keeps board settings in a flat YAML mapping under
// $XDG_CONFIG_HOME/brainstorm/settings.yaml. The file is re-read on every
// call so a running server sees `config set` from another process.
type settingsFile struct {
	path string
}

func newPlatformSettings() Settings {
	return &settingsFile{path: settingsFilePath()}
}

func settingsFilePath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "brainstorm", "settings.yaml")
}

func (f *settingsFile) Lookup(key string) (string, bool, error) {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (f *settingsFile) Put(key, raw string) error {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return err
	}
	m[key] = raw
	return writeYAMLMap(f.path, m)
}

func (f *settingsFile) Remove(key string) error {
	m, err := readYAMLMap(f.path)
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return writeYAMLMap(f.path, m)
}

// readYAMLMap loads a flat string mapping. A missing file is an empty map;
// a file that does not parse is an error, never silently empty.
func readYAMLMap(path string) (map[string]string, error) {
	m := make(map[string]string)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m == nil {
		m = make(map[string]string)
	}
	return m, nil
}

// writeYAMLMap replaces path atomically with a 0600 file.
func writeYAMLMap(path string, m map[string]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".brainstorm-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
