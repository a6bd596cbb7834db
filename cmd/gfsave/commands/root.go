// Package commands implements the CLI commands for gfsave.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/cmd"
	"github.com/thoreinstein/gfsave/cmd/gfsave/commands/backup"
	"github.com/thoreinstein/gfsave/cmd/gfsave/commands/flags"
	"github.com/thoreinstein/gfsave/internal/cli"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/logging"
	"github.com/thoreinstein/gfsave/internal/paths"
)

// configEnv names the environment variable that overrides the default
// configuration file.
const configEnv = "GFSAVE_CONFIG"

// debugEnv raises the log level when no -v flag is given.
const debugEnv = "GFSAVE_DEBUG"

// annotationNoInit marks commands that must not create the configuration
// file on first run.
const annotationNoInit = "gfsave/no-init"

// ErrSilent marks an error whose outcome the command already printed.
var ErrSilent = errors.New("reported")

// configPath holds the value of the --config flag.
var configPath string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// logCloser closes the rotating log file, if one was opened.
var logCloser io.Closer

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"configuration file (default: $"+configEnv+" or "+paths.ConfigFile()+")")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to a rotating file in JSON format")
	rootCmd.PersistentFlags().BoolVarP(flags.AssumeYesVar(), "yes", "y", false,
		"answer yes to every confirmation prompt")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("gfsave version {{.Version}}\n")

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return gferrors.NewUserError(err, "Run: gfsave --help")
	})

	rootCmd.AddCommand(backup.Cmd)
}

var rootCmd = &cobra.Command{
	Use:   "gfsave",
	Short: "Back up and restore GodForsaken save games",
	Long: `gfsave keeps timestamped copies of the GodForsaken save directory.

Every backup is a full copy of the save folder, named after the time the
game last wrote its profile (ProfileBrief.ssp). Manual backups are kept
until you delete them or prune them; automatic backups are taken before
every restore and by 'gfsave watch', and both kinds are trimmed to
max_history entries after each new backup.

The game must be closed for backups and restores. gfsave checks for the
running game and refuses unless --force is given.`,
	Example: `  # Back up the current save with a note
  gfsave backup create --note "before the bridge"

  # Pick a backup interactively and restore it
  gfsave backup restore

  # Take automatic backups while playing
  gfsave watch

  # Check the installation
  gfsave doctor

  See Also: gfsave backup, gfsave config, gfsave status`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return setupSession(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return gferrors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv(debugEnv); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return gferrors.NewUserError(err, "")
	}

	cfg := logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}

	if logFile != "" {
		if err := paths.EnsureDir(filepath.Dir(logFile), paths.DefaultDirPerm); err != nil {
			return gferrors.NewUserError(err, "failed to open log file")
		}
		f := logging.OpenFile(logFile)
		logCloser = f
		cfg.File = f
	}

	logger := logging.New(cfg)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// setupSession binds the command to its configuration file and, for
// commands that use it, writes the defaults on first run.
func setupSession(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}

	ctx := cmd.Context()
	s := cli.NewSession(ctx, path)
	cmd.SetContext(cli.NewContext(ctx, s))

	if cmd.Annotations[annotationNoInit] != "" {
		return nil
	}
	if _, err := s.Store.EnsureExists(); err != nil {
		return gferrors.NewSystemError(err, "Check permissions of "+filepath.Dir(s.Store.Path()))
	}
	return nil
}

// noInit is the annotation set of commands that only read state.
func noInit() map[string]string {
	return map[string]string{annotationNoInit: "true"}
}

// Execute runs the root command until it finishes or the process is
// interrupted. Returned errors carry an exit code.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		_ = logCloser.Close()
	}
	return cli.ExitError(err)
}
