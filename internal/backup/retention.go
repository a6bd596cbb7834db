package backup

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// ErrInvalidKeep indicates a negative keep count.
var ErrInvalidKeep = errors.New("keep must be non-negative")

// Prune deletes the oldest backups of kind so that at most keep remain.
// It returns the deleted entries, oldest last.
func (m *Manager) Prune(kind Kind, keep int) ([]Entry, error) {
	if keep < 0 {
		return nil, ErrInvalidKeep
	}
	return m.prune(kind, keep, "")
}

// enforceRetention prunes each kind down to max_history. A max_history
// below 1 disables retention. protect, if set, is never deleted.
func (m *Manager) enforceRetention(protect string) error {
	cfg, err := m.load()
	if err != nil {
		return err
	}
	if cfg.MaxHistory < 1 {
		m.logger.Debug("retention disabled", "max_history", cfg.MaxHistory)
		return nil
	}

	for _, kind := range Kinds() {
		if _, err := m.prune(kind, cfg.MaxHistory, protect); err != nil {
			return err
		}
	}
	return nil
}

// prune deletes the entries of kind past position keep in descending
// identity-time order. Each deletion goes through Delete, which reloads
// and saves the configuration on its own.
func (m *Manager) prune(kind Kind, keep int, protect string) ([]Entry, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, e := range all {
		if e.Kind == kind {
			entries = append(entries, e)
		}
	}
	if len(entries) <= keep {
		return nil, nil
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.Identity.Time().Compare(a.Identity.Time()); c != 0 {
			return c
		}
		return compareEntries(a, b)
	})

	var removed []Entry
	for _, e := range entries[keep:] {
		if samePath(e.Path, protect) {
			continue
		}
		m.logger.Info("pruning old backup", "kind", kind, "identity", e.Identity, "path", e.Path)
		if err := m.Delete(e.Path); err != nil {
			return removed, errors.Wrapf(err, "pruning %s", e.Path)
		}
		removed = append(removed, e)
	}
	return removed, nil
}
