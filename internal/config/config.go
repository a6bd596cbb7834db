package config

import (
	"bytes"
	"log/slog"
	"maps"
	"path/filepath"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Configuration keys as they appear in the JSON file.
const (
	KeyGameSavePath                   = "game_save_path"
	KeyBackupRootPath                 = "backup_root_path"
	KeyAutoBackupRootPath             = "auto_backup_root_path"
	KeyLastBackup                     = "last_backup"
	KeyMaxHistory                     = "max_history"
	KeyRestoreConfirmThresholdMinutes = "restore_confirm_threshold_minutes"
	KeyAutoLaunchGame                 = "auto_launch_game"
	KeyNotes                          = "notes"
)

// Default values of the scalar settings.
const (
	DefaultMaxHistory                     = 30
	DefaultRestoreConfirmThresholdMinutes = 20
	DefaultAutoLaunchGame                 = true
)

// Directory names below the game data directory.
const (
	saveDirName        = "game_save"
	manualBackupDir    = "game_save_my_bak"
	automaticBackupDir = "game_save_auto_bak"
)

// Keys returns every configuration key in file order.
func Keys() []string {
	return []string{
		KeyGameSavePath,
		KeyBackupRootPath,
		KeyAutoBackupRootPath,
		KeyLastBackup,
		KeyMaxHistory,
		KeyRestoreConfirmThresholdMinutes,
		KeyAutoLaunchGame,
		KeyNotes,
	}
}

// Config is the persisted gfsave configuration.
// Notes maps a save identity to the user's note for it.
type Config struct {
	GameSavePath                   string            `json:"game_save_path"`
	BackupRootPath                 string            `json:"backup_root_path"`
	AutoBackupRootPath             string            `json:"auto_backup_root_path"`
	LastBackup                     string            `json:"last_backup"`
	MaxHistory                     int               `json:"max_history"`
	RestoreConfirmThresholdMinutes int               `json:"restore_confirm_threshold_minutes"`
	AutoLaunchGame                 bool              `json:"auto_launch_game"`
	Notes                          map[string]string `json:"notes"`
}

// Default returns the default configuration for a game data directory.
// The live save and both backup roots are siblings inside gameDataDir.
func Default(gameDataDir string) Config {
	return Config{
		GameSavePath:                   filepath.Join(gameDataDir, saveDirName),
		BackupRootPath:                 filepath.Join(gameDataDir, manualBackupDir),
		AutoBackupRootPath:             filepath.Join(gameDataDir, automaticBackupDir),
		LastBackup:                     "",
		MaxHistory:                     DefaultMaxHistory,
		RestoreConfirmThresholdMinutes: DefaultRestoreConfirmThresholdMinutes,
		AutoLaunchGame:                 DefaultAutoLaunchGame,
		Notes:                          map[string]string{},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Notes = make(map[string]string, len(c.Notes))
	maps.Copy(out.Notes, c.Notes)
	return out
}

// AsMap returns the configuration keyed by its JSON names.
func (c Config) AsMap() map[string]any {
	notes := make(map[string]string, len(c.Notes))
	maps.Copy(notes, c.Notes)
	return map[string]any{
		KeyGameSavePath:                   c.GameSavePath,
		KeyBackupRootPath:                 c.BackupRootPath,
		KeyAutoBackupRootPath:             c.AutoBackupRootPath,
		KeyLastBackup:                     c.LastBackup,
		KeyMaxHistory:                     c.MaxHistory,
		KeyRestoreConfirmThresholdMinutes: c.RestoreConfirmThresholdMinutes,
		KeyAutoLaunchGame:                 c.AutoLaunchGame,
		KeyNotes:                          notes,
	}
}

// ParseOrDefault parses a JSON configuration document and fills every
// missing key from defaults.
//
// It never fails. A document that is not a JSON object is logged and
// replaced by defaults; a key whose value has the wrong type falls back to
// its default, and a notes value that is not a string map becomes empty.
// A nil logger discards the warnings.
func ParseOrDefault(data []byte, defaults Config, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cfg := defaults.Clone()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg
	}

	v := viper.New()
	v.SetConfigType("json")
	for key, value := range defaults.AsMap() {
		v.SetDefault(key, value)
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		logger.Warn("config is not valid JSON, using defaults", "error", err)
		return cfg
	}

	cfg.GameSavePath = stringOr(v, KeyGameSavePath, defaults.GameSavePath, logger)
	cfg.BackupRootPath = stringOr(v, KeyBackupRootPath, defaults.BackupRootPath, logger)
	cfg.AutoBackupRootPath = stringOr(v, KeyAutoBackupRootPath, defaults.AutoBackupRootPath, logger)
	cfg.LastBackup = stringOr(v, KeyLastBackup, defaults.LastBackup, logger)
	cfg.MaxHistory = intOr(v, KeyMaxHistory, defaults.MaxHistory, logger)
	cfg.RestoreConfirmThresholdMinutes = intOr(v, KeyRestoreConfirmThresholdMinutes, defaults.RestoreConfirmThresholdMinutes, logger)
	cfg.AutoLaunchGame = boolOr(v, KeyAutoLaunchGame, defaults.AutoLaunchGame, logger)

	notes, err := cast.ToStringMapStringE(v.Get(KeyNotes))
	if err != nil {
		logger.Warn("config notes are not a string map, resetting", "error", err)
		notes = map[string]string{}
	}
	if notes == nil {
		notes = map[string]string{}
	}
	cfg.Notes = notes

	return cfg
}

func stringOr(v *viper.Viper, key, def string, logger *slog.Logger) string {
	s, err := cast.ToStringE(v.Get(key))
	if err != nil {
		logger.Warn("config value has the wrong type, using default", "key", key, "error", err)
		return def
	}
	return s
}

func intOr(v *viper.Viper, key string, def int, logger *slog.Logger) int {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		logger.Warn("config value has the wrong type, using default", "key", key, "error", err)
		return def
	}
	return n
}

func boolOr(v *viper.Viper, key string, def bool, logger *slog.Logger) bool {
	b, err := cast.ToBoolE(v.Get(key))
	if err != nil {
		logger.Warn("config value has the wrong type, using default", "key", key, "error", err)
		return def
	}
	return b
}
