//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const defaultsDomain = "app.brainstorm.board"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "brainstorm-data"
	}
	return filepath.Join(home, "Library", "Application Support", "brainstorm")
}

// userDefaults stores every setting as a string in the app's UserDefaults
// domain. `defaults` exits 1 for a missing key.
type userDefaults struct {
	domain string
}

func newPlatformSettings() Settings {
	return userDefaults{domain: defaultsDomain}
}

func (d userDefaults) run(args ...string) (string, error) {
	out, err := exec.Command("defaults", args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, fmt.Errorf("defaults %s: %w: %s", args[0], err, text)
	}
	return text, nil
}

func missingDefault(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}

func (d userDefaults) Lookup(key string) (string, bool, error) {
	v, err := d.run("read", d.domain, key)
	if missingDefault(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d userDefaults) Put(key, raw string) error {
	_, err := d.run("write", d.domain, key, "-string", raw)
	return err
}

func (d userDefaults) Remove(key string) error {
	if _, err := d.run("delete", d.domain, key); err != nil && !missingDefault(err) {
		return err
	}
	return nil
}
