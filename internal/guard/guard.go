package guard

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// GameExecutable is the file name of the game's executable.
	GameExecutable = "GodForsaken.exe"

	// GameMutex is the named mutex the game creates to prevent a second
	// instance.
	GameMutex = "n-GOD-FORSAKEN-GodForsaken-exe-SingleInstanceMutex-Default"

	// commLen is the longest process name Linux keeps in /proc/<pid>/comm.
	commLen = 15
)

var (
	// ErrUnsupported indicates a strategy that cannot run on this platform.
	ErrUnsupported = errors.New("guard strategy not supported on this platform")

	// ErrGameRunning indicates the game is running.
	ErrGameRunning = errors.New("game is running")
)

// Guard reports whether the game is running. A missing indicator is not an
// error; only unexpected operating system failures are returned.
type Guard interface {
	Running(ctx context.Context) (bool, error)
}

// EnsureStopped returns ErrGameRunning if g reports the game running.
func EnsureStopped(ctx context.Context, g Guard) error {
	running, err := g.Running(ctx)
	if err != nil {
		return errors.Wrap(err, "checking for the game process")
	}
	if running {
		return ErrGameRunning
	}
	return nil
}

// Default returns the guard for the current platform: the single-instance
// mutex where it can be opened, the process table otherwise.
func Default() Guard {
	return Fallback(NewMutexGuard(GameMutex), NewProcessGuard(GameExecutable))
}

type fallback []Guard

// Fallback returns a Guard that asks each guard in turn and returns the
// answer of the first one that does not report ErrUnsupported.
func Fallback(guards ...Guard) Guard {
	return fallback(guards)
}

func (f fallback) Running(ctx context.Context) (bool, error) {
	for _, g := range f {
		running, err := g.Running(ctx)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return running, err
	}
	return false, ErrUnsupported
}

// MutexGuard checks for a named mutex held by the game.
type MutexGuard struct {
	Name string
}

// NewMutexGuard creates a MutexGuard for the mutex name.
func NewMutexGuard(name string) *MutexGuard {
	return &MutexGuard{Name: name}
}

// Running reports whether the mutex exists.
func (g *MutexGuard) Running(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return mutexExists(g.Name)
}

// process is one entry of the process table. Fields the platform cannot
// provide are empty.
type process struct {
	PID  int
	Comm string
	Exe  string
	Args []string
}

// ProcessGuard scans the process table for an executable name.
type ProcessGuard struct {
	Name string

	list func(ctx context.Context) ([]process, error)
}

// NewProcessGuard creates a ProcessGuard matching the executable name.
func NewProcessGuard(name string) *ProcessGuard {
	return &ProcessGuard{Name: name, list: listProcesses}
}

// Running reports whether any process matches the guard's name.
func (g *ProcessGuard) Running(ctx context.Context) (bool, error) {
	list := g.list
	if list == nil {
		list = listProcesses
	}
	procs, err := list(ctx)
	if err != nil {
		return false, errors.Wrap(err, "listing processes")
	}
	for _, p := range procs {
		if p.matches(g.Name) {
			return true, nil
		}
	}
	return false, nil
}

// matches compares name, case-insensitively, against the process's
// executable base name, its comm (which Linux truncates) and, for games
// started through Wine or Proton, each command line argument.
func (p process) matches(name string) bool {
	if name == "" {
		return false
	}
	if p.Exe != "" && strings.EqualFold(baseName(p.Exe), name) {
		return true
	}
	if p.Comm != "" {
		if strings.EqualFold(p.Comm, name) {
			return true
		}
		if len(p.Comm) == commLen && len(name) > commLen &&
			strings.EqualFold(p.Comm, name[:commLen]) {
			return true
		}
	}
	for _, arg := range p.Args {
		if strings.EqualFold(baseName(arg), name) {
			return true
		}
	}
	return false
}

// baseName returns the last element of a Unix or Windows path.
func baseName(path string) string {
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
