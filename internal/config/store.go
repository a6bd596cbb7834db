package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/paths"
	"github.com/thoreinstein/gfsave/pkg/fileutil"
)

// Store persists a Config.
//
// Load never fails for a missing or malformed file; it returns the
// defaults instead. Save always writes a fully defaulted document.
type Store interface {
	Load() (*Config, error)
	Save(*Config) error
}

// FileStore is a Store backed by a JSON file.
type FileStore struct {
	path     string
	defaults Config
	logger   *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults replaces the default table the store merges into every load.
func WithDefaults(cfg Config) Option {
	return func(s *FileStore) {
		s.defaults = cfg.Clone()
	}
}

// NewFileStore returns a store for the JSON file at path. Unless
// WithDefaults is given, defaults are derived from paths.GameDataDir.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		defaults: Default(paths.GameDataDir()),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Defaults returns a copy of the store's default table.
func (s *FileStore) Defaults() Config {
	return s.defaults.Clone()
}

// Load reads the configuration file. A missing file, an oversized file and
// malformed JSON all yield the defaults. Other read failures, such as a
// permission error, are returned so a later Save cannot clobber a file the
// store was unable to read.
func (s *FileStore) Load() (*Config, error) {
	data, err := fileutil.ReadFileWithLimit(s.path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("config file not found, using defaults", "path", s.path)
		cfg := s.defaults.Clone()
		return &cfg, nil
	case errors.Is(err, fileutil.ErrFileTooLarge):
		s.logger.Warn("config file too large, using defaults", "path", s.path)
		cfg := s.defaults.Clone()
		return &cfg, nil
	default:
		return nil, errors.Wrapf(err, "reading config %s", s.path)
	}

	cfg := ParseOrDefault(data, s.defaults, s.logger.With("path", s.path))
	return &cfg, nil
}

// Save writes cfg atomically, creating the parent directory if needed.
// Empty paths are filled from the defaults before writing.
func (s *FileStore) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	out := cfg.Clone()
	if out.GameSavePath == "" {
		out.GameSavePath = s.defaults.GameSavePath
	}
	if out.BackupRootPath == "" {
		out.BackupRootPath = s.defaults.BackupRootPath
	}
	if out.AutoBackupRootPath == "" {
		out.AutoBackupRootPath = s.defaults.AutoBackupRootPath
	}

	if err := paths.EnsureDir(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteJSON(s.path, out); err != nil {
		return errors.Wrapf(err, "writing config %s", s.path)
	}
	return nil
}

// EnsureExists writes the defaults when no configuration file exists yet.
// It reports whether a file was created.
func (s *FileStore) EnsureExists() (bool, error) {
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, errors.Wrapf(err, "stat config %s", s.path)
	}

	cfg := s.defaults.Clone()
	if err := s.Save(&cfg); err != nil {
		return false, err
	}
	s.logger.Info("created default config", "path", s.path)
	return true, nil
}
