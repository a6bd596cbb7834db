// Package errors provides error handling conventions for the gfsave CLI.
//
// Domain packages construct and wrap errors with github.com/cockroachdb/errors
// and export their own sentinels (backup.ErrNotFound, guard.ErrGameRunning).
// This package sits at the CLI boundary: it defines the exit codes and the
// [ExitError] type the command layer converts those sentinels into.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (missing backup, invalid config, game running)
//   - ExitSystem (2): System-related error (I/O, network, permissions)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional suggestion.
// It supports error unwrapping via [errors.Unwrap] and [errors.As]:
//
//	err := gferrors.NewUserError(backup.ErrNotFound, "Run: gfsave backup list")
//	var exitErr *gferrors.ExitError
//	if errors.As(err, &exitErr) {
//	    if exitErr.Suggestion != "" {
//	        fmt.Println("Suggestion:", exitErr.Suggestion)
//	    }
//	    os.Exit(exitErr.Code)
//	}
package errors
