package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Validation errors for configuration fields.
var (
	// ErrMaxHistoryTooLow indicates max_history is below 1.
	ErrMaxHistoryTooLow = errors.New("must be >= 1")

	// ErrNegative indicates a numeric setting is negative.
	ErrNegative = errors.New("must not be negative")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrOverlappingPath indicates a backup root overlaps the live save,
	// so restoring would delete backups.
	ErrOverlappingPath = errors.New("overlaps the game save path")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.MaxHistory < 1 {
		errs = append(errs, &FieldError{Field: KeyMaxHistory, Value: cfg.MaxHistory, Err: ErrMaxHistoryTooLow})
	}
	if cfg.RestoreConfirmThresholdMinutes < 0 {
		errs = append(errs, &FieldError{
			Field: KeyRestoreConfirmThresholdMinutes,
			Value: cfg.RestoreConfirmThresholdMinutes,
			Err:   ErrNegative,
		})
	}

	pathFields := []struct {
		key   string
		value string
	}{
		{KeyGameSavePath, cfg.GameSavePath},
		{KeyBackupRootPath, cfg.BackupRootPath},
		{KeyAutoBackupRootPath, cfg.AutoBackupRootPath},
	}
	for _, f := range pathFields {
		if err := validatePath(f.value); err != nil {
			errs = append(errs, &FieldError{Field: f.key, Value: f.value, Err: err})
		}
	}

	for _, f := range pathFields[1:] {
		if overlaps(cfg.GameSavePath, f.value) {
			errs = append(errs, &FieldError{Field: f.key, Value: f.value, Err: ErrOverlappingPath})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	if path == "" {
		return ErrInvalidPath
	}

	// Null bytes are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// overlaps reports whether a and b are the same directory or one contains
// the other.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a, b = filepath.Clean(a), filepath.Clean(b)
	if strings.EqualFold(a, b) {
		return true
	}
	return within(a, b) || within(b, a)
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// FieldError represents a validation error for a single configuration key.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error() + " (got " + formatValue(e.Value) + ")"
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
