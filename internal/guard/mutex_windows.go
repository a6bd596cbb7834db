package guard

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

func mutexExists(name string) (bool, error) {
	ptr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false, errors.Wrapf(err, "invalid mutex name %q", name)
	}
	h, err := windows.OpenMutex(windows.SYNCHRONIZE, false, ptr)
	switch {
	case err == nil:
		_ = windows.CloseHandle(h)
		return true, nil
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND):
		return false, nil
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		// Held by an elevated process, so it exists.
		return true, nil
	default:
		return false, errors.Wrapf(err, "opening mutex %s", name)
	}
}
