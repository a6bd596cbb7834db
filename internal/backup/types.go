package backup

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/save"
)

// AutoBackupNote is the note recorded for automatic backups.
const AutoBackupNote = "[auto]"

// Sentinel errors for backup operations.
var (
	// ErrNotFound indicates a required path is absent: the live save, its
	// marker file, or a backup target.
	ErrNotFound = errors.New("not found")

	// ErrIO marks copy, remove, read and write failures.
	ErrIO = errors.New("backup I/O failure")

	// ErrSnapshotMismatch indicates a staged restore does not match its
	// source backup. The live save is left untouched when this is returned.
	ErrSnapshotMismatch = errors.New("restored content does not match backup")

	// ErrInvalidKind indicates an unrecognized backup kind name.
	ErrInvalidKind = errors.New("invalid backup kind")

	// ErrInvalidTarget indicates a restore target that overlaps the live save.
	ErrInvalidTarget = errors.New("invalid restore target")
)

// Kind tells manual and automatic backups apart. It is decided by the root
// directory a backup was discovered under and never stored in the backup.
type Kind int

const (
	// KindManual is a backup the user asked for.
	KindManual Kind = iota
	// KindAutomatic is a backup taken by gfsave itself, for example before
	// a restore or by the watcher.
	KindAutomatic
)

// Kinds lists every kind in catalog order.
func Kinds() []Kind {
	return []Kind{KindManual, KindAutomatic}
}

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindAutomatic:
		return "automatic"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name. "auto" is accepted for automatic.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual":
		return KindManual, nil
	case "automatic", "auto":
		return KindAutomatic, nil
	default:
		return 0, errors.Wrapf(ErrInvalidKind, "%q", s)
	}
}

// Entry is one backup found in a backup root.
type Entry struct {
	// Path is the backup directory.
	Path string `json:"path"`

	// Identity is the folder name, the save version the backup holds.
	Identity save.Identity `json:"identity"`

	// Note is the user's note for Identity, empty if none.
	Note string `json:"note"`

	// ProfileModifiedAt is the modification time of the backup's marker file.
	ProfileModifiedAt time.Time `json:"profile_modified_at"`

	// Kind is the root the backup was found under.
	Kind Kind `json:"kind"`
}

// RestoreResult describes the side effects of a restore.
type RestoreResult struct {
	// SafetyBackup is the identity of the live save before the restore.
	// It is empty when the live save had no marker file.
	SafetyBackup save.Identity

	// SafetyCreated reports whether an automatic backup of the live save
	// was taken because no backup of it existed yet.
	SafetyCreated bool
}
