// Package credential resolves the completion provider API key.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/brainstorm/internal/completion"
	"github.com/kalambet/brainstorm/internal/storage"
)

// SettingKey is the settings row the key is persisted under.
const SettingKey = "completion.api_key"

// ErrNotSet is returned when no key has been stored. It wraps
// completion.ErrMissingCredential.
var ErrNotSet = fmt.Errorf("credential not set: %w", completion.ErrMissingCredential)

// Store reads, writes and clears the API key.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SettingsStore is the subset of storage.Store used for persistence.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Persistent keeps the key in the settings table.
type Persistent struct {
	settings SettingsStore
}

func NewPersistent(settings SettingsStore) *Persistent {
	return &Persistent{settings: settings}
}

func (p *Persistent) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := p.settings.GetSetting(SettingKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotSet
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", SettingKey, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", ErrNotSet
	}
	return v, nil
}

func (p *Persistent) Set(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key must not be empty")
	}
	if err := p.settings.SetSetting(SettingKey, key); err != nil {
		return fmt.Errorf("writing %s: %w", SettingKey, err)
	}
	return nil
}

// Clear forgets the stored key. It returns ErrNotSet if none was stored.
func (p *Persistent) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.settings.DeleteSetting(SettingKey)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotSet
	}
	if err != nil {
		return fmt.Errorf("deleting %s: %w", SettingKey, err)
	}
	return nil
}

// Chain prefers a statically configured key (env or config file) and falls
// back to the persistent store. Set always writes to the store.
type Chain struct {
	Static string
	Store  Store
}

func (c Chain) Get(ctx context.Context) (string, error) {
	if k := strings.TrimSpace(c.Static); k != "" {
		return k, nil
	}
	if c.Store == nil {
		return "", ErrNotSet
	}
	return c.Store.Get(ctx)
}

func (c Chain) Set(ctx context.Context, key string) error {
	if c.Store == nil {
		return errors.New("no persistent credential store configured")
	}
	return c.Store.Set(ctx, key)
}

// Clear only touches the persistent store; a static key stays in effect.
func (c Chain) Clear(ctx context.Context) error {
	if c.Store == nil {
		return ErrNotSet
	}
	return c.Store.Clear(ctx)
}

// Mask returns key with all but the last four characters hidden.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
