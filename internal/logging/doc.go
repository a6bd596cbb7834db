// Package logging provides structured logging for the gfsave CLI using slog.
//
// Console output goes through [Handler], a compact colorized text handler,
// or through slog's JSON handler. A log file, when requested, always gets
// JSON and is rotated by size (see [OpenFile]).
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	ctx = logging.NewContext(ctx, logger)
//
// Code that only has a context retrieves the logger with [FromContext],
// which never returns nil.
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging
