package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/guard"
	"github.com/thoreinstein/gfsave/internal/save"
	"github.com/thoreinstein/gfsave/pkg/fileutil"
)

// configFilePerm is the permission the configuration file is written with.
const configFilePerm os.FileMode = 0o600

// ConfigCheck validates the configuration file: present, readable, valid
// JSON, not world-writable, and with values that pass config.Validate.
type ConfigCheck struct {
	issueSet
	store *config.FileStore
}

var (
	_ Check = (*ConfigCheck)(nil)
	_ Fixer = (*ConfigCheck)(nil)
)

// NewConfigCheck creates a check of the file behind store.
func NewConfigCheck(store *config.FileStore) *ConfigCheck {
	return &ConfigCheck{store: store}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run executes the check.
func (c *ConfigCheck) Run(_ context.Context) *CheckResult {
	c.reset()
	path := c.store.Path()
	details := map[string]any{"path": path}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.add(issue{
			Path:        path,
			Problem:     "configuration file does not exist, defaults are in use",
			Severity:    SeverityInfo,
			FixHint:     "gfsave doctor --fix writes the defaults",
			fix:         func() error { _, err := c.store.EnsureExists(); return err },
			fixDescribe: "wrote default configuration",
		})
	case err != nil:
		c.add(issue{Path: path, Problem: fmt.Sprintf("cannot stat configuration: %v", err), Severity: SeverityError})
		return c.result("", details)
	default:
		c.checkFile(path, info)
	}

	cfg, err := c.store.Load()
	if err != nil {
		c.add(issue{Path: path, Problem: fmt.Sprintf("cannot read configuration: %v", err), Severity: SeverityError})
		return c.result("", details)
	}
	for _, verr := range config.Validate(cfg) {
		c.add(issue{
			Path:     path,
			Problem:  verr.Error(),
			Severity: SeverityError,
			FixHint:  "gfsave config set <key> <value>",
		})
	}
	details["max_history"] = cfg.MaxHistory

	return c.result("configuration is valid", details)
}

func (c *ConfigCheck) checkFile(path string, info fs.FileInfo) {
	data, err := fileutil.ReadFileWithLimit(path)
	switch {
	case errors.Is(err, fileutil.ErrFileTooLarge):
		c.add(issue{Path: path, Problem: "configuration file is too large, defaults are in use", Severity: SeverityWarning})
	case err != nil:
		c.add(issue{Path: path, Problem: fmt.Sprintf("configuration file is not readable: %v", err), Severity: SeverityError})
	case !json.Valid(data):
		c.add(issue{
			Path:     path,
			Problem:  "configuration file is not valid JSON, defaults are in use",
			Severity: SeverityWarning,
			FixHint:  "gfsave config edit",
		})
	}

	if runtime.GOOS != "windows" && info.Mode().Perm()&0o002 != 0 {
		c.add(issue{
			Path:        path,
			Problem:     fmt.Sprintf("configuration file is world-writable (%s)", formatPermissions(info.Mode())),
			Severity:    SeverityWarning,
			FixHint:     fmt.Sprintf("chmod %04o %s", configFilePerm, path),
			fix:         func() error { return os.Chmod(path, configFilePerm) },
			fixDescribe: fmt.Sprintf("chmod %04o", configFilePerm),
		})
	}
}

// SavePathCheck verifies the live save directory exists and holds a marker
// file.
type SavePathCheck struct {
	issueSet
	store config.Store
}

var _ Check = (*SavePathCheck)(nil)

// NewSavePathCheck creates a check of the configured game save path.
func NewSavePathCheck(store config.Store) *SavePathCheck {
	return &SavePathCheck{store: store}
}

// Name returns the unique identifier for this check.
func (c *SavePathCheck) Name() string { return "save-path" }

// Category returns the grouping for this check.
func (c *SavePathCheck) Category() string { return "storage" }

// Run executes the check.
func (c *SavePathCheck) Run(_ context.Context) *CheckResult {
	c.reset()
	cfg, err := c.store.Load()
	if err != nil {
		c.add(issue{Problem: fmt.Sprintf("cannot read configuration: %v", err), Severity: SeverityError})
		return c.result("", nil)
	}

	live := cfg.GameSavePath
	details := map[string]any{"path": live}

	if !fileutil.IsDir(live) {
		c.add(issue{
			Path:     live,
			Problem:  "game save directory not found",
			Severity: SeverityError,
			FixHint:  "gfsave config set game_save_path <dir>",
		})
		return c.result("", details)
	}

	id, modTime, ok, err := save.ReadIdentity(live)
	switch {
	case err != nil:
		c.add(issue{Path: live, Problem: fmt.Sprintf("cannot read %s: %v", save.MarkerFile, err), Severity: SeverityError})
	case !ok:
		c.add(issue{
			Path:     live,
			Problem:  fmt.Sprintf("no %s in the save directory; the game has not saved yet", save.MarkerFile),
			Severity: SeverityWarning,
		})
	default:
		details["identity"] = id.String()
		details["modified"] = modTime
	}

	return c.result(fmt.Sprintf("save found (%s)", id), details)
}

// BackupRootsCheck verifies both backup roots are usable directories.
type BackupRootsCheck struct {
	issueSet
	store config.Store
}

var (
	_ Check = (*BackupRootsCheck)(nil)
	_ Fixer = (*BackupRootsCheck)(nil)
)

// NewBackupRootsCheck creates a check of the manual and automatic roots.
func NewBackupRootsCheck(store config.Store) *BackupRootsCheck {
	return &BackupRootsCheck{store: store}
}

// Name returns the unique identifier for this check.
func (c *BackupRootsCheck) Name() string { return "backup-roots" }

// Category returns the grouping for this check.
func (c *BackupRootsCheck) Category() string { return "storage" }

// Run executes the check.
func (c *BackupRootsCheck) Run(_ context.Context) *CheckResult {
	c.reset()
	cfg, err := c.store.Load()
	if err != nil {
		c.add(issue{Problem: fmt.Sprintf("cannot read configuration: %v", err), Severity: SeverityError})
		return c.result("", nil)
	}

	details := map[string]any{}
	roots := map[backup.Kind]string{
		backup.KindManual:    cfg.BackupRootPath,
		backup.KindAutomatic: cfg.AutoBackupRootPath,
	}
	for _, kind := range backup.Kinds() {
		root := roots[kind]
		details[kind.String()+"_root"] = root
		c.checkRoot(kind, root)
	}

	entries, err := backup.NewManager(c.store).List()
	if err == nil {
		counts := map[string]int{}
		for _, e := range entries {
			counts[e.Kind.String()]++
		}
		details["backups"] = counts
	}

	return c.result("backup roots are writable", details)
}

func (c *BackupRootsCheck) checkRoot(kind backup.Kind, root string) {
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.add(issue{
			Path:        root,
			Problem:     fmt.Sprintf("%s backup root does not exist yet", kind),
			Severity:    SeverityInfo,
			fix:         func() error { return os.MkdirAll(root, 0o755) },
			fixDescribe: "created directory",
		})
	case err != nil:
		c.add(issue{Path: root, Problem: fmt.Sprintf("cannot stat %s backup root: %v", kind, err), Severity: SeverityError})
	case !info.IsDir():
		c.add(issue{Path: root, Problem: fmt.Sprintf("%s backup root is not a directory", kind), Severity: SeverityError})
	case !isDirectoryWritable(root):
		c.add(issue{
			Path:     root,
			Problem:  fmt.Sprintf("%s backup root is not writable (%s)", kind, formatPermissions(info.Mode())),
			Severity: SeverityError,
			FixHint:  "chmod u+w " + root,
		})
	}
}

// GameProcessCheck reports whether the game is running, which blocks
// backups and restores.
type GameProcessCheck struct {
	guard guard.Guard
}

var _ Check = (*GameProcessCheck)(nil)

// NewGameProcessCheck creates a check using g.
func NewGameProcessCheck(g guard.Guard) *GameProcessCheck {
	return &GameProcessCheck{guard: g}
}

// Name returns the unique identifier for this check.
func (c *GameProcessCheck) Name() string { return "game-process" }

// Category returns the grouping for this check.
func (c *GameProcessCheck) Category() string { return "game" }

// Run executes the check.
func (c *GameProcessCheck) Run(ctx context.Context) *CheckResult {
	running, err := c.guard.Running(ctx)
	switch {
	case errors.Is(err, guard.ErrUnsupported):
		return &CheckResult{Status: SeverityInfo, Message: "cannot detect the game on this platform"}
	case err != nil:
		return &CheckResult{
			Status:  SeverityWarning,
			Message: fmt.Sprintf("could not check for the game: %v", err),
		}
	case running:
		return &CheckResult{
			Status:  SeverityWarning,
			Message: "the game is running; backups and restores are blocked until it exits",
			FixHint: "quit the game, or pass --force",
		}
	default:
		return &CheckResult{Status: SeverityPass, Message: "the game is not running"}
	}
}

// DefaultChecks returns the standard set of checks.
func DefaultChecks(store *config.FileStore, g guard.Guard) []Check {
	return []Check{
		NewConfigCheck(store),
		NewSavePathCheck(store),
		NewBackupRootsCheck(store),
		NewGameProcessCheck(g),
	}
}
