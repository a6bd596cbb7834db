package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/cmd/gfsave/commands/flags"
	"github.com/thoreinstein/gfsave/internal/cli"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
)

func init() {
	Cmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete [ref]",
	Aliases: []string{"rm"},
	Short:   "Delete a backup",
	Long: `Delete a backup directory and its note.

Without a reference, choose the backup from a list. Notes belong to a save
version, so deleting either kind's backup also removes the note shown for
the other kind's backup of that version.`,
	Example: `  # Choose a backup to delete
  gfsave backup delete

  # Delete an automatic backup without asking
  gfsave backup delete auto:2024-03-01_12-30-45 --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		return runDelete(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), ref, flags.AssumeYes())
	},
}

func runDelete(ctx context.Context, s *cli.Session, w io.Writer, ref string, assumeYes bool) error {
	entry, err := resolve(ctx, s, ref, "Delete")
	if err != nil {
		return err
	}

	if !assumeYes {
		ok, err := s.Prompt.Confirm(fmt.Sprintf("Delete %s backup %s?", entry.Kind, entry.Identity), false)
		if err != nil {
			return err
		}
		if !ok {
			return gferrors.ErrCancelled
		}
	}

	return s.Locked(ctx, func() error {
		if err := s.Manager.Delete(entry.Path); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s Deleted %s (%s)\n", green("✓"), entry.Identity, entry.Kind)
		return nil
	})
}
