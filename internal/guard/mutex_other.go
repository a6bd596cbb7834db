//go:build !windows

package guard

func mutexExists(string) (bool, error) {
	return false, ErrUnsupported
}
