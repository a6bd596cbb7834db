package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli/prompt"
	"github.com/thoreinstein/gfsave/internal/config"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/guard"
	"github.com/thoreinstein/gfsave/internal/lock"
	"github.com/thoreinstein/gfsave/internal/logging"
)

type fakeGuard struct {
	running bool
	err     error
	calls   int
}

func (g *fakeGuard) Running(context.Context) (bool, error) {
	g.calls++
	return g.running, g.err
}

func newTestSession(t *testing.T, g guard.Guard) *Session {
	t.Helper()
	ctx := logging.NewContext(context.Background(), logging.ForTest(t))
	path := filepath.Join(t.TempDir(), "config.json")
	return NewSession(ctx, path,
		WithGuard(g),
		WithPrompter(prompt.NewWithIO(strings.NewReader(""), &strings.Builder{})),
		WithLockOptions(lock.WithTimeout(time.Second)),
	)
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t, &fakeGuard{})

	assert.True(t, strings.HasSuffix(s.Store.Path(), "config.json"))
	assert.Equal(t, lock.NameFor(s.Store.Path()), s.Locker.Name())
	assert.NotNil(t, s.Manager)
	assert.False(t, s.Prompt.Interactive())
}

func TestSession_Guarded(t *testing.T) {
	tests := []struct {
		name    string
		guard   *fakeGuard
		force   bool
		wantRun bool
		wantErr error
	}{
		{name: "stopped", guard: &fakeGuard{}, wantRun: true},
		{name: "running", guard: &fakeGuard{running: true}, wantErr: guard.ErrGameRunning},
		{name: "running forced", guard: &fakeGuard{running: true}, force: true, wantRun: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, tt.guard)
			ran := false
			err := s.Guarded(context.Background(), tt.force, func() error {
				ran = true
				return nil
			})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantRun, ran)
			if tt.force {
				assert.Zero(t, tt.guard.calls)
			}
		})
	}
}

func TestSession_LockedHoldsLock(t *testing.T) {
	s := newTestSession(t, &fakeGuard{})

	err := s.Locked(context.Background(), func() error {
		_, err := lock.Acquire(context.Background(), s.Locker.Name(), 200*time.Millisecond)
		return err
	})
	assert.True(t, errors.Is(err, lock.ErrBusy), "error = %v", err)
}

func TestFromContext(t *testing.T) {
	s := newTestSession(t, &fakeGuard{})
	ctx := NewContext(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
}

func TestExitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantHint string
	}{
		{"game running", errors.Wrap(guard.ErrGameRunning, "restore"), gferrors.ExitUser, "--force"},
		{"lock busy", lock.ErrBusy, gferrors.ExitUser, "try again"},
		{"not found", errors.Wrapf(backup.ErrNotFound, "backup %s", "x"), gferrors.ExitUser, "gfsave backup list"},
		{"cancelled", gferrors.ErrCancelled, gferrors.ExitUser, ""},
		{"unknown key", config.ErrUnknownKey, gferrors.ExitUser, "config list"},
		{"field error", &config.FieldError{Field: "max_history", Err: config.ErrNegative}, gferrors.ExitUser, "doctor"},
		{"io", errors.Mark(errors.New("disk full"), backup.ErrIO), gferrors.ExitSystem, ""},
		{"mismatch", backup.ErrSnapshotMismatch, gferrors.ExitSystem, "untouched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExitError(tt.err)
			var exitErr *gferrors.ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, tt.wantCode, exitErr.Code)
			if tt.wantHint == "" {
				assert.Empty(t, exitErr.Suggestion)
			} else {
				assert.Contains(t, exitErr.Suggestion, tt.wantHint)
			}
			assert.True(t, errors.Is(err, tt.err))
		})
	}

	assert.NoError(t, ExitError(nil))

	already := gferrors.NewUserError(errors.New("x"), "hint")
	assert.Same(t, already, ExitError(already))
}
