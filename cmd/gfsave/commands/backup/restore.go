package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/cmd/gfsave/commands/flags"
	"github.com/thoreinstein/gfsave/internal/cli"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/guard"
)

type restoreOptions struct {
	force     bool
	assumeYes bool
}

var restoreForce bool

func init() {
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "restore even if the game is running")
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [ref]",
	Short: "Restore a backup",
	Long: `Replace the live save with a backup.

Without a reference, choose the backup from a list. If the live save has
no backup yet, an automatic backup of it is taken first, so a restore
never loses a save version. The restored copy is verified against the
backup before the live save is replaced.

When the live save and the backup were played more than
restore_confirm_threshold_minutes apart, gfsave asks before restoring.
--yes skips the question.

The game must not be running; pass --force to restore anyway.`,
	Example: `  # Choose a backup
  gfsave backup restore

  # Restore a specific identity
  gfsave backup restore 2024-03-01_12-30-45

  # Restore the newest backup without asking
  gfsave backup restore latest --yes

  See Also:
    gfsave backup list - List available backups`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		opts := restoreOptions{force: restoreForce, assumeYes: flags.AssumeYes()}
		return runRestore(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), ref, opts)
	},
}

func runRestore(ctx context.Context, s *cli.Session, w io.Writer, ref string, opts restoreOptions) error {
	// Refuse before the picker so the user does not choose in vain.
	if !opts.force {
		if err := guard.EnsureStopped(ctx, s.Guard); err != nil {
			return err
		}
	}

	entry, err := resolve(ctx, s, ref, "Restore")
	if err != nil {
		return err
	}

	cfg, err := s.Store.Load()
	if err != nil {
		return err
	}
	elapsed := s.Manager.ElapsedMinutes(entry.Path)
	if !opts.assumeYes && elapsed > float64(cfg.RestoreConfirmThresholdMinutes) {
		question := fmt.Sprintf("The live save and %s were played %.0f minutes apart. Restore anyway?",
			entry.Identity, elapsed)
		ok, err := s.Prompt.Confirm(question, false)
		if err != nil {
			return err
		}
		if !ok {
			return gferrors.ErrCancelled
		}
	}

	return s.Guarded(ctx, opts.force, func() error {
		res, err := s.Manager.Restore(entry.Path)
		if err != nil {
			return err
		}

		if res.SafetyCreated {
			fmt.Fprintf(w, "%s Backed up the live save %s first\n", green("✓"), res.SafetyBackup)
		}
		fmt.Fprintf(w, "%s Restored %s (%s)\n", green("✓"), bold(entry.Identity), entry.Kind)
		if entry.Note != "" {
			fmt.Fprintf(w, "  %s\n", gray(entry.Note))
		}
		return nil
	})
}
