package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
)

var (
	// ErrUnknownKey indicates a key that is not part of the configuration.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrNotSettable indicates a key that cannot be set from a single value.
	ErrNotSettable = errors.New("config key cannot be set directly")

	// ErrInvalidValue indicates a value that does not convert to the key's type.
	ErrInvalidValue = errors.New("invalid config value")
)

// Get returns the value of key.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.AsMap()[normalizeKey(key)]
	return v, ok
}

// Set parses value for key and assigns it. Notes are edited through the
// backup manager, not through Set.
func (c *Config) Set(key, value string) error {
	key = normalizeKey(key)
	switch key {
	case KeyGameSavePath:
		c.GameSavePath = value
	case KeyBackupRootPath:
		c.BackupRootPath = value
	case KeyAutoBackupRootPath:
		c.AutoBackupRootPath = value
	case KeyLastBackup:
		c.LastBackup = value
	case KeyMaxHistory:
		n, err := cast.ToIntE(strings.TrimSpace(value))
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "%s", key), ErrInvalidValue)
		}
		c.MaxHistory = n
	case KeyRestoreConfirmThresholdMinutes:
		n, err := cast.ToIntE(strings.TrimSpace(value))
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "%s", key), ErrInvalidValue)
		}
		c.RestoreConfirmThresholdMinutes = n
	case KeyAutoLaunchGame:
		b, err := cast.ToBoolE(strings.TrimSpace(value))
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "%s", key), ErrInvalidValue)
		}
		c.AutoLaunchGame = b
	case KeyNotes:
		return errors.Wrapf(ErrNotSettable, "%s", key)
	default:
		return errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	return nil
}

// normalizeKey accepts dashed spellings (max-history) of the JSON keys.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

func formatValue(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return "?"
	}
	if s == "" {
		return `""`
	}
	return s
}
