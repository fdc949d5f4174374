package config

import (
	"fmt"
	"strings"
)

// KeyInfo is one setting as shown by `brainstorm config show`.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
	Stored bool
}

// ShowAll lists every non-secret setting with its effective value in cfg.
// Stored reports whether st holds an explicit value for the key.
func ShowAll(cfg Config, st Settings) []KeyInfo {
	var out []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		info := KeyInfo{Key: s.key, EnvVar: s.env, Value: fmt.Sprint(s.extract(cfg))}
		if st != nil {
			_, info.Stored, _ = st.Lookup(s.key)
		}
		out = append(out, info)
	}
	return out
}

// SetKey validates value for key and stores its normalised form.
func SetKey(st Settings, key, value string) error {
	s, err := settableSpec(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return st.Put(key, fmt.Sprint(v))
}

// UnsetKey drops a stored setting so the default (or env override) applies.
func UnsetKey(st Settings, key string) error {
	if _, err := settableSpec(key); err != nil {
		return err
	}
	return st.Remove(key)
}

func settableSpec(key string) (keySpec, error) {
	s, ok := lookupSpec(key)
	if !ok {
		return keySpec{}, fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	if s.secret {
		return keySpec{}, fmt.Errorf("%s is a secret; use %s instead", key, s.env)
	}
	return s, nil
}

// ValidKeys returns the non-secret setting names in table order.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
