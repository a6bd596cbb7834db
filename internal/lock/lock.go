package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/juju/clock"
	"github.com/juju/mutex/v2"
)

const (
	// DefaultTimeout bounds how long Acquire waits for a busy lock.
	DefaultTimeout = 30 * time.Second

	// retryDelay is the interval between acquisition attempts.
	retryDelay = 100 * time.Millisecond

	namePrefix = "gfsave-"
)

// ErrBusy indicates the lock was held by another operation for longer
// than the timeout.
var ErrBusy = errors.New("another gfsave operation is in progress")

// Releaser releases a held lock.
type Releaser = mutex.Releaser

// NameFor returns the mutex name for a configuration file. Equivalent
// paths map to the same name.
func NameFor(configPath string) string {
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(configPath)))
	return namePrefix + hex.EncodeToString(sum[:8])
}

// Acquire blocks until the named lock is held, timeout elapses or ctx is
// done. A zero timeout waits until ctx is done.
func Acquire(ctx context.Context, name string, timeout time.Duration) (Releaser, error) {
	return acquire(ctx, name, timeout, clock.WallClock)
}

func acquire(ctx context.Context, name string, timeout time.Duration, clk clock.Clock) (Releaser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cancel := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { close(cancel) })
	defer stop()

	r, err := mutex.Acquire(mutex.Spec{
		Name:    name,
		Clock:   clk,
		Delay:   retryDelay,
		Timeout: timeout,
		Cancel:  cancel,
	})
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, mutex.ErrTimeout):
		return nil, errors.Mark(errors.Wrapf(err, "lock %s", name), ErrBusy)
	case errors.Is(err, mutex.ErrCancelled):
		return nil, errors.Wrapf(ctx.Err(), "lock %s", name)
	default:
		return nil, errors.Wrapf(err, "acquiring lock %s", name)
	}
}

// Locker holds the lock for one configuration file.
type Locker struct {
	name    string
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures a Locker.
type Option func(*Locker)

// WithTimeout sets how long Acquire waits. Zero waits until the context is
// done.
func WithTimeout(d time.Duration) Option {
	return func(l *Locker) {
		l.timeout = d
	}
}

// WithLogger sets the logger for wait events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Locker for the configuration file at configPath.
func New(configPath string, opts ...Option) *Locker {
	l := &Locker{
		name:    NameFor(configPath),
		timeout: DefaultTimeout,
		clock:   clock.WallClock,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the mutex name.
func (l *Locker) Name() string {
	return l.name
}

// Acquire takes the lock.
func (l *Locker) Acquire(ctx context.Context) (Releaser, error) {
	start := l.clock.Now()
	r, err := acquire(ctx, l.name, l.timeout, l.clock)
	if err != nil {
		return nil, err
	}
	if waited := l.clock.Now().Sub(start); waited >= retryDelay {
		l.logger.Debug("waited for lock", "name", l.name, "waited", waited)
	}
	return r, nil
}

// Do runs fn while holding the lock.
func (l *Locker) Do(ctx context.Context, fn func() error) error {
	r, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn()
}
