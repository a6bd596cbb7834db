package cli

import (
	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli/prompt"
	"github.com/thoreinstein/gfsave/internal/config"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/guard"
	"github.com/thoreinstein/gfsave/internal/lock"
	"github.com/thoreinstein/gfsave/internal/update"
)

// ExitError converts a domain error into a *gferrors.ExitError carrying the
// exit code and a suggestion. Errors that already are ExitErrors pass
// through; nil stays nil.
func ExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *gferrors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var fieldErr *config.FieldError
	switch {
	case errors.Is(err, guard.ErrGameRunning):
		return gferrors.NewUserError(err, "Close the game first, or pass --force")
	case errors.Is(err, lock.ErrBusy):
		return gferrors.NewUserError(err, "Another gfsave command is running; try again when it finishes")
	case errors.Is(err, backup.ErrNotFound):
		return gferrors.NewUserError(err, "Run: gfsave backup list")
	case errors.Is(err, gferrors.ErrCancelled),
		errors.Is(err, gferrors.ErrNoSelection),
		errors.Is(err, prompt.ErrSelectionCancelled):
		return gferrors.NewUserError(err, "")
	case errors.Is(err, backup.ErrInvalidTarget),
		errors.Is(err, backup.ErrInvalidKind),
		errors.Is(err, backup.ErrInvalidKeep),
		errors.Is(err, prompt.ErrInvalidSelection),
		errors.Is(err, update.ErrInvalidVersion):
		return gferrors.NewUserError(err, "")
	case errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, config.ErrNotSettable),
		errors.Is(err, config.ErrInvalidValue):
		return gferrors.NewUserError(err, "Run: gfsave config list")
	case errors.As(err, &fieldErr), errors.Is(err, gferrors.ErrInvalidConfig):
		return gferrors.NewConfigError(err)
	case errors.Is(err, update.ErrChecksumMismatch), errors.Is(err, update.ErrNoVersionInfo):
		return gferrors.NewSystemError(err, "Download the release manually from the project page")
	case errors.Is(err, backup.ErrSnapshotMismatch):
		return gferrors.NewSystemError(err, "The live save was left untouched; check the backup with: gfsave doctor")
	default:
		return gferrors.NewSystemError(err, "")
	}
}
