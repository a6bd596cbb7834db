package save

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
)

// MarkerFile is the file whose modification time versions a save.
const MarkerFile = "ProfileBrief.ssp"

// Layout is the time layout of an Identity.
const Layout = "2006-01-02_15-04-05"

// ErrInvalidIdentity indicates a string is not in the identity format.
var ErrInvalidIdentity = errors.New("invalid save identity")

// Identity is the canonical version string of a save state.
// The zero value is the empty identity and is never produced by NewIdentity.
type Identity string

// NewIdentity formats t, truncated to the second, in local time.
func NewIdentity(t time.Time) Identity {
	return Identity(t.Local().Format(Layout))
}

// ParseIdentity validates s and returns it as an Identity.
func ParseIdentity(s string) (Identity, error) {
	if _, err := time.ParseInLocation(Layout, s, time.Local); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "parsing identity %q", s), ErrInvalidIdentity)
	}
	return Identity(s), nil
}

// String returns the identity in its folder-name form.
func (id Identity) String() string {
	return string(id)
}

// IsZero reports whether id is the empty identity.
func (id Identity) IsZero() bool {
	return id == ""
}

// Time returns the local time the identity denotes. An identity that does
// not parse yields the zero time.
func (id Identity) Time() time.Time {
	t, err := time.ParseInLocation(Layout, string(id), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ProfileTime returns the modification time of dir's marker file.
//
// A missing marker, a marker that is a directory, or a missing dir all
// report ok=false with a nil error: dir is simply not a save. Other stat
// failures are returned.
func ProfileTime(dir string) (modTime time.Time, ok bool, err error) {
	info, err := os.Stat(filepath.Join(dir, MarkerFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrapf(err, "stat marker in %s", dir)
	}
	if info.IsDir() {
		return time.Time{}, false, nil
	}
	return info.ModTime(), true, nil
}

// ReadIdentity returns the identity and marker time of the save in dir.
func ReadIdentity(dir string) (Identity, time.Time, bool, error) {
	modTime, ok, err := ProfileTime(dir)
	if err != nil || !ok {
		return "", time.Time{}, ok, err
	}
	return NewIdentity(modTime), modTime, true, nil
}
