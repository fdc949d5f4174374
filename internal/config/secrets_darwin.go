//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// errSecItemNotFound is the exit status `security` uses for a missing item.
const errSecItemNotFound = 44

type keychain struct{}

func newPlatformSecrets() Secrets {
	return keychain{}
}

func security(args ...string) (string, error) {
	out, err := exec.Command("security", args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == errSecItemNotFound {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("security %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (keychain) Get(account string) (string, error) {
	v, err := security("find-generic-password", "-s", secretService, "-a", account, "-w")
	if err != nil {
		return "", fmt.Errorf("%s: %w", account, err)
	}
	return v, nil
}

func (keychain) Set(account, value string) error {
	_, err := security("add-generic-password", "-U", "-s", secretService, "-a", account, "-w", value)
	return err
}

func (keychain) Delete(account string) error {
	_, err := security("delete-generic-password", "-s", secretService, "-a", account)
	if errors.Is(err, ErrSecretNotFound) {
		return nil
	}
	return err
}
