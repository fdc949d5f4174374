package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// secretService groups every board secret in the platform store.
const secretService = "brainstorm"

// Accounts the board keeps in the secret store.
const (
	AccountAPIToken      = "api.token"
	AccountCompletionKey = "completion.api_key"
)

// ErrSecretNotFound is returned by Secrets.Get for an account that holds no
// value. Any other error means the store itself could not be read.
var ErrSecretNotFound = errors.New("secret not found")

// Secrets is the platform secret store for board credentials.
type Secrets interface {
	Get(account string) (string, error)
	Set(account, value string) error
	Delete(account string) error
}

// NewSecrets returns the macOS Keychain on darwin and a 0600 YAML file
// elsewhere.
func NewSecrets() Secrets {
	return newPlatformSecrets()
}

// GetAPIToken returns the bearer token guarding the local HTTP API,
// generating and storing one on first use.
func GetAPIToken(s Secrets) (string, error) {
	tok, err := s.Get(AccountAPIToken)
	if err == nil && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok), nil
	}
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return "", fmt.Errorf("reading API token: %w", err)
	}
	tok = uuid.New().String()
	if err := s.Set(AccountAPIToken, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
