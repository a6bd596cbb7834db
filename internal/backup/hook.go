package backup

import (
	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/save"
)

// EnsureBackedUp takes an automatic backup of the live save unless a
// backup of its identity already exists in either root.
//
// It returns the live identity and whether a backup was created. A live
// save without a marker file has nothing to protect and returns an empty
// identity without error.
func (m *Manager) EnsureBackedUp() (save.Identity, bool, error) {
	return m.ensureBackedUp("")
}

func (m *Manager) ensureBackedUp(protect string) (save.Identity, bool, error) {
	cfg, err := m.load()
	if err != nil {
		return "", false, err
	}

	id, _, ok, err := save.ReadIdentity(cfg.GameSavePath)
	if err != nil {
		return "", false, errors.Mark(err, ErrIO)
	}
	if !ok {
		m.logger.Debug("live save has no marker, nothing to back up", "path", cfg.GameSavePath)
		return "", false, nil
	}

	entries, err := m.list(cfg)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Identity == id {
			return id, false, nil
		}
	}

	created, ok, err := m.create("", KindAutomatic, protect)
	if err != nil {
		return id, ok, err
	}
	if !ok {
		// Raced with another writer; the backup exists now.
		return id, false, nil
	}
	return created, true, nil
}
