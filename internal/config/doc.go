// Package config provides the gfsave Config Store.
//
// The configuration is a single JSON document. Every load merges the file
// over a fixed default table, so callers always see a fully populated
// [Config] no matter how much of the file is missing or damaged.
//
// # Configuration File
//
// The default location is <ConfigHome>/gfsave/config.json:
//
//	{
//	  "game_save_path": ".../GodForsakenRelease/game_save",
//	  "backup_root_path": ".../GodForsakenRelease/game_save_my_bak",
//	  "auto_backup_root_path": ".../GodForsakenRelease/game_save_auto_bak",
//	  "last_backup": "",
//	  "max_history": 30,
//	  "restore_confirm_threshold_minutes": 20,
//	  "auto_launch_game": true,
//	  "notes": {
//	    "2024-03-01_12-30-45": "before the cathedral boss"
//	  }
//	}
//
// # Loading Configuration
//
// [ParseOrDefault] is the pure parsing step. It never returns an error:
// malformed JSON is logged and replaced by the defaults. [FileStore] wraps
// it with file access:
//
//	store := config.NewFileStore(path, config.WithLogger(logger))
//	cfg, err := store.Load()
//	if err != nil {
//	    return err // the file exists but could not be read
//	}
//
// # Validation
//
// [Validate] reports problems a user should fix, one [FieldError] per key:
//
//	for _, e := range config.Validate(cfg) {
//	    fmt.Println(e)
//	}
package config
