// Package cli provides the state and error conventions shared by the
// gfsave commands.
package cli

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli/prompt"
	"github.com/thoreinstein/gfsave/internal/config"
	"github.com/thoreinstein/gfsave/internal/guard"
	"github.com/thoreinstein/gfsave/internal/lock"
	"github.com/thoreinstein/gfsave/internal/logging"
	"github.com/thoreinstein/gfsave/internal/paths"
)

// Session bundles the collaborators a command works with. All of them are
// bound to one configuration file.
type Session struct {
	Store   *config.FileStore
	Manager *backup.Manager
	Locker  *lock.Locker
	Guard   guard.Guard
	Prompt  *prompt.Prompter
	Logger  *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGuard replaces the platform game guard.
func WithGuard(g guard.Guard) SessionOption {
	return func(s *Session) {
		s.Guard = g
	}
}

// WithPrompter replaces the stdin/stdout prompter.
func WithPrompter(p *prompt.Prompter) SessionOption {
	return func(s *Session) {
		s.Prompt = p
	}
}

// WithLockOptions passes options to the operation lock.
func WithLockOptions(opts ...lock.Option) SessionOption {
	return func(s *Session) {
		s.Locker = lock.New(s.Store.Path(), append([]lock.Option{lock.WithLogger(s.Logger)}, opts...)...)
	}
}

// NewSession creates a Session for the configuration file at configPath,
// or the default file when it is empty. The logger is taken from ctx.
func NewSession(ctx context.Context, configPath string, opts ...SessionOption) *Session {
	if configPath == "" {
		configPath = paths.ConfigFile()
	}
	logger := logging.FromContext(ctx)

	store := config.NewFileStore(configPath, config.WithLogger(logger))
	s := &Session{
		Store:   store,
		Manager: backup.NewManager(store, backup.WithLogger(logger)),
		Locker:  lock.New(store.Path(), lock.WithLogger(logger)),
		Guard:   guard.Default(),
		Prompt:  prompt.New(),
		Logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locked runs fn while holding the operation lock of the configuration
// file.
func (s *Session) Locked(ctx context.Context, fn func() error) error {
	return s.Locker.Do(ctx, fn)
}

// Guarded is Locked, refusing with guard.ErrGameRunning while the game is
// running unless force is set.
func (s *Session) Guarded(ctx context.Context, force bool, fn func() error) error {
	if force {
		s.Logger.Debug("skipping game check")
	} else if err := guard.EnsureStopped(ctx, s.Guard); err != nil {
		return err
	}
	return s.Locked(ctx, fn)
}

type sessionKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the Session carried by ctx. Without one it creates a
// Session for the default configuration file.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}
	return NewSession(ctx, "")
}
