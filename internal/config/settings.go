package config

// Settings holds the non-secret board settings as raw strings keyed by their
// dotted name ("server.port"). Typing happens in the key table, so a backend
// only moves text around.
type Settings interface {
	Lookup(key string) (raw string, ok bool, err error)
	Put(key, raw string) error
	Remove(key string) error
}

// NewSettings returns the settings backend for the current platform.
func NewSettings() Settings {
	return newPlatformSettings()
}
