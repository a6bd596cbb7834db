package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
	"github.com/thoreinstein/gfsave/internal/watch"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period after the game writes before a backup is taken")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Back up automatically whenever the game saves",
	Long: `Watch the game save directory and take an automatic backup each time
the game writes a new profile.

Writes are debounced: a backup is taken once the save directory has been
quiet for --debounce. Identical saves are never backed up twice, and the
automatic root is trimmed to max_history after each backup.

The live save is backed up once when watching starts. Stop with Ctrl+C.`,
	Example: `  # Watch with the default 5s quiet period
  gfsave watch

  # Wait longer before copying
  gfsave watch --debounce 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s := cli.FromContext(ctx)
		cfg, err := s.Store.Load()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		onSave := autoBackup(s, w)
		if err := onSave(ctx); err != nil {
			return err
		}

		fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", cfg.GameSavePath)
		watcher := watch.New(cfg.GameSavePath, onSave,
			watch.WithDebounce(watchDebounce),
			watch.WithLogger(s.Logger))
		return watcher.Run(ctx)
	},
}

// autoBackup returns the watch callback: an automatic backup of the live
// save under the operation lock. The game is expected to be running, so
// the guard is not consulted.
func autoBackup(s *cli.Session, w io.Writer) watch.Func {
	return func(ctx context.Context) error {
		return s.Locked(ctx, func() error {
			id, created, err := s.Manager.Create("", backup.KindAutomatic)
			if err != nil {
				if errors.Is(err, backup.ErrNotFound) {
					s.Logger.Info("no save to back up yet")
					return nil
				}
				return err
			}
			if created {
				fmt.Fprintf(w, "%s backed up %s\n", time.Now().Format(time.TimeOnly), id)
			}
			return nil
		})
	}
}
