package backup

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/save"
	"github.com/thoreinstein/gfsave/pkg/fileutil"
)

// Manager creates, restores, deletes and prunes backups of the live save.
//
// Every public method reloads the configuration from its Store, so edits
// made to the file between calls are honoured. A Manager holds no lock:
// callers that may run operations concurrently must serialize them.
type Manager struct {
	store  config.Store
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for operation events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store config.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) load() (*config.Config, error) {
	cfg, err := m.store.Load()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "loading config"), ErrIO)
	}
	if cfg.Notes == nil {
		cfg.Notes = map[string]string{}
	}
	return cfg, nil
}

func (m *Manager) save(cfg *config.Config) error {
	if err := m.store.Save(cfg); err != nil {
		return errors.Mark(errors.Wrap(err, "saving config"), ErrIO)
	}
	return nil
}

// LiveIdentity returns the identity and marker time of the live save.
// ok is false when the live save has no marker file.
func (m *Manager) LiveIdentity() (id save.Identity, modTime time.Time, ok bool, err error) {
	cfg, err := m.load()
	if err != nil {
		return "", time.Time{}, false, err
	}
	id, modTime, ok, err = save.ReadIdentity(cfg.GameSavePath)
	if err != nil {
		return "", time.Time{}, false, errors.Mark(err, ErrIO)
	}
	return id, modTime, ok, nil
}

// Create snapshots the live save into the root of kind.
//
// If a backup with the live save's identity already exists in that root,
// Create does nothing and returns ok=false. Manual and automatic roots
// deduplicate independently. For manual backups a non-empty note is stored
// under the identity. Automatic backups ignore note and store
// AutoBackupNote, except when the identity already carries a note: a
// manual backup's note is never overwritten by the "[auto]" marker.
// Retention runs after every successful create.
func (m *Manager) Create(note string, kind Kind) (save.Identity, bool, error) {
	return m.create(note, kind, "")
}

// create is Create with one backup path exempt from retention.
func (m *Manager) create(note string, kind Kind, protect string) (save.Identity, bool, error) {
	cfg, err := m.load()
	if err != nil {
		return "", false, err
	}

	live := cfg.GameSavePath
	if !fileutil.IsDir(live) {
		return "", false, errors.Wrapf(ErrNotFound, "game save %s", live)
	}
	id, _, ok, err := save.ReadIdentity(live)
	if err != nil {
		return "", false, errors.Mark(err, ErrIO)
	}
	if !ok {
		return "", false, errors.Wrapf(ErrNotFound, "%s in %s", save.MarkerFile, live)
	}

	target := backupPath(rootFor(cfg, kind), id)
	if _, err := os.Lstat(target); err == nil {
		m.logger.Info("save already backed up", "identity", id, "kind", kind, "path", target)
		return "", false, nil
	}

	if err := snapshot(live, target); err != nil {
		return "", false, err
	}

	switch {
	case kind == KindAutomatic && cfg.Notes[id.String()] == "":
		cfg.Notes[id.String()] = AutoBackupNote
	case kind == KindManual && note != "":
		cfg.Notes[id.String()] = note
	}
	cfg.LastBackup = target
	if err := m.save(cfg); err != nil {
		return id, true, err
	}

	m.logger.Info("backup created", "identity", id, "kind", kind, "path", target)

	if err := m.enforceRetention(protect); err != nil {
		return id, true, errors.Wrap(err, "enforcing retention")
	}
	return id, true, nil
}

// snapshot copies src to dst through a hidden staging directory, so dst
// only ever appears complete. A failed copy removes its staging directory.
func snapshot(src, dst string) error {
	staging := stagingPath(dst)
	if err := fileutil.RemoveTree(staging); err != nil {
		return errors.Mark(err, ErrIO)
	}
	if err := fileutil.CopyTree(src, staging); err != nil {
		_ = fileutil.RemoveTree(staging)
		return errors.Mark(errors.Wrapf(err, "copying %s", src), ErrIO)
	}
	if err := os.Rename(staging, dst); err != nil {
		_ = fileutil.RemoveTree(staging)
		return errors.Mark(errors.Wrapf(err, "moving snapshot into %s", dst), ErrIO)
	}
	return nil
}

// Restore replaces the live save with the backup at target.
//
// If the live save's current identity has no backup in either root, an
// automatic backup of it is taken first. The backup is then staged next
// to the live save and verified against target before the live save is
// removed and the staged copy renamed into its place.
func (m *Manager) Restore(target string) (*RestoreResult, error) {
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}

	if !fileutil.IsDir(target) {
		return nil, errors.Wrapf(ErrNotFound, "backup %s", target)
	}
	live := cfg.GameSavePath
	if contains(live, target) || contains(target, live) {
		return nil, errors.Wrapf(ErrInvalidTarget, "%s overlaps the game save %s", target, live)
	}

	result := &RestoreResult{}
	result.SafetyBackup, result.SafetyCreated, err = m.ensureBackedUp(target)
	if err != nil {
		return nil, errors.Wrap(err, "safety backup")
	}

	// The safety backup may have rewritten the file.
	cfg, err = m.load()
	if err != nil {
		return nil, err
	}

	staging := stagingPath(live)
	if err := fileutil.RemoveTree(staging); err != nil {
		return nil, errors.Mark(err, ErrIO)
	}
	if err := fileutil.CopyTree(target, staging); err != nil {
		_ = fileutil.RemoveTree(staging)
		return nil, errors.Mark(errors.Wrapf(err, "staging %s", target), ErrIO)
	}
	if err := verifySnapshot(target, staging); err != nil {
		_ = fileutil.RemoveTree(staging)
		return nil, err
	}

	if err := fileutil.RemoveTree(live); err != nil {
		_ = fileutil.RemoveTree(staging)
		return nil, errors.Mark(errors.Wrap(err, "removing live save"), ErrIO)
	}
	if err := os.Rename(staging, live); err != nil {
		// The live save is gone at this point; the staged copy is kept so
		// it can be moved by hand.
		return nil, errors.Mark(errors.Wrapf(err, "moving %s into place", staging), ErrIO)
	}

	cfg.LastBackup = target
	if err := m.save(cfg); err != nil {
		return result, err
	}

	m.logger.Info("backup restored", "from", target, "to", live,
		"safety_backup", result.SafetyBackup, "safety_created", result.SafetyCreated)
	return result, nil
}

func verifySnapshot(want, got string) error {
	wantSum, err := fileutil.TreeDigest(want)
	if err != nil {
		return errors.Mark(err, ErrIO)
	}
	gotSum, err := fileutil.TreeDigest(got)
	if err != nil {
		return errors.Mark(err, ErrIO)
	}
	if wantSum != gotSum {
		return errors.Wrapf(ErrSnapshotMismatch, "%s: %s != %s", want, gotSum, wantSum)
	}
	return nil
}

// Delete removes the backup at target, the note stored under its folder
// name and, if it was the last backup, the last_backup setting. Notes are
// keyed by identity alone, so deleting one kind's backup also drops the
// note shown for the other kind's backup of the same identity.
func (m *Manager) Delete(target string) error {
	if !fileutil.IsDir(target) {
		return errors.Wrapf(ErrNotFound, "backup %s", target)
	}

	if err := fileutil.RemoveTree(target); err != nil {
		return errors.Mark(err, ErrIO)
	}

	cfg, err := m.load()
	if err != nil {
		return err
	}

	delete(cfg.Notes, filepath.Base(filepath.Clean(target)))
	if samePath(cfg.LastBackup, target) {
		cfg.LastBackup = ""
	}
	if err := m.save(cfg); err != nil {
		return err
	}

	m.logger.Info("backup deleted", "path", target)
	return nil
}

// ElapsedMinutes returns how far apart, in minutes, the live save and the
// backup at target were last played. It returns 0 when either marker file
// is missing or unreadable.
func (m *Manager) ElapsedMinutes(target string) float64 {
	cfg, err := m.load()
	if err != nil {
		return 0
	}

	liveTime, ok, err := save.ProfileTime(cfg.GameSavePath)
	if err != nil || !ok {
		return 0
	}
	backupTime, ok, err := save.ProfileTime(target)
	if err != nil || !ok {
		return 0
	}

	return math.Abs(liveTime.Sub(backupTime).Minutes())
}

// SetNote sets the note of identity. An empty note removes it.
func (m *Manager) SetNote(id save.Identity, note string) error {
	if _, err := save.ParseIdentity(id.String()); err != nil {
		return err
	}

	cfg, err := m.load()
	if err != nil {
		return err
	}
	entries, err := m.list(cfg)
	if err != nil {
		return err
	}

	found := false
	for _, e := range entries {
		if e.Identity == id {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrapf(ErrNotFound, "backup %s", id)
	}

	if note == "" {
		delete(cfg.Notes, id.String())
	} else {
		cfg.Notes[id.String()] = note
	}
	return m.save(cfg)
}
