package backup

import (
	"cmp"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/save"
)

// Backup references understood by Find besides paths and identities.
const (
	// RefLatest selects the most recently played backup of either kind.
	RefLatest = "latest"
	// RefLast selects the configured last_backup path.
	RefLast = "last"
)

// List returns every backup in both roots, most recently played save first.
// The catalog is re-read from disk on every call.
func (m *Manager) List() ([]Entry, error) {
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	return m.list(cfg)
}

func (m *Manager) list(cfg *config.Config) ([]Entry, error) {
	var entries []Entry
	for _, kind := range Kinds() {
		found, err := m.scanRoot(rootFor(cfg, kind), kind, cfg.Notes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}

	slices.SortStableFunc(entries, compareEntries)
	return entries, nil
}

// compareEntries orders by marker time, newest first. Ties fall back to
// kind and path so the order is stable across runs.
func compareEntries(a, b Entry) int {
	if c := b.ProfileModifiedAt.Compare(a.ProfileModifiedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

// scanRoot lists the backups directly below root. A missing root is an
// empty catalog. Directories without a marker file are not backups and are
// skipped, as are hidden staging directories and folders whose name is not
// an identity.
func (m *Manager) scanRoot(root string, kind Kind, notes map[string]string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Mark(errors.Wrapf(err, "reading %s backup root", kind), ErrIO)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() || isHidden(de.Name()) {
			continue
		}

		path := filepath.Join(root, de.Name())
		modTime, ok, err := save.ProfileTime(path)
		if err != nil {
			return nil, errors.Mark(err, ErrIO)
		}
		if !ok {
			continue
		}

		id, err := save.ParseIdentity(de.Name())
		if err != nil {
			m.logger.Debug("skipping folder with non-identity name", "path", path)
			continue
		}

		entries = append(entries, Entry{
			Path:              path,
			Identity:          id,
			Note:              notes[id.String()],
			ProfileModifiedAt: modTime,
			Kind:              kind,
		})
	}
	return entries, nil
}

// Find resolves a backup reference: a backup directory path, an identity
// (manual backups win over automatic ones), an identity prefixed with a
// kind ("auto:2024-03-01_12-30-45"), RefLatest or RefLast.
func (m *Manager) Find(ref string) (*Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.Wrap(ErrNotFound, "empty backup reference")
	}

	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	entries, err := m.list(cfg)
	if err != nil {
		return nil, err
	}

	switch ref {
	case RefLatest:
		if len(entries) == 0 {
			return nil, errors.Wrap(ErrNotFound, "no backups")
		}
		return &entries[0], nil
	case RefLast:
		if cfg.LastBackup == "" {
			return nil, errors.Wrap(ErrNotFound, "no last backup recorded")
		}
		ref = cfg.LastBackup
	}

	for i := range entries {
		if samePath(entries[i].Path, ref) {
			return &entries[i], nil
		}
	}

	kinds := Kinds()
	if prefix, rest, ok := strings.Cut(ref, ":"); ok {
		if kind, err := ParseKind(prefix); err == nil {
			kinds = []Kind{kind}
			ref = rest
		}
	}

	for _, kind := range kinds {
		for i := range entries {
			if entries[i].Kind == kind && entries[i].Identity.String() == ref {
				return &entries[i], nil
			}
		}
	}

	return nil, errors.Wrapf(ErrNotFound, "backup %q", ref)
}
