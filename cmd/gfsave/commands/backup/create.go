package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
)

type createOptions struct {
	note  string
	auto  bool
	force bool
}

var createOpts createOptions

func init() {
	createCmd.Flags().StringVarP(&createOpts.note, "note", "n", "", "note to attach to the backup")
	createCmd.Flags().BoolVar(&createOpts.auto, "auto", false, "store the backup in the automatic root")
	createCmd.Flags().BoolVar(&createOpts.force, "force", false, "back up even if the game is running")
	createCmd.MarkFlagsMutuallyExclusive("note", "auto")
	Cmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up the live save",
	Long: `Copy the live save directory into the manual backup root.

If the current save version is already backed up in that root, nothing is
copied. After a new backup, both roots are trimmed to max_history.

The game must not be running; pass --force to back up anyway.`,
	Example: `  # Create a manual backup
  gfsave backup create

  # With a note
  gfsave backup create --note "all relics"

  See Also:
    gfsave backup list    - List available backups
    gfsave backup restore - Restore a backup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return runCreate(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), createOpts)
	},
}

// errNoteWithAuto rejects a note on an automatic backup, which always
// carries backup.AutoBackupNote.
var errNoteWithAuto = errors.New("--note cannot be used with --auto")

func runCreate(ctx context.Context, s *cli.Session, w io.Writer, opts createOptions) error {
	kind := backup.KindManual
	if opts.auto {
		if opts.note != "" {
			return gferrors.NewUserError(errNoteWithAuto, "Add a note later with: gfsave backup note <ref> <text>")
		}
		kind = backup.KindAutomatic
	}

	return s.Guarded(ctx, opts.force, func() error {
		id, created, err := s.Manager.Create(opts.note, kind)
		if err != nil {
			return err
		}

		if !created {
			live, _, _, err := s.Manager.LiveIdentity()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s is already backed up (%s)\n", yellow("•"), live, kind)
			return nil
		}

		fmt.Fprintf(w, "%s Backed up %s (%s)\n", green("✓"), bold(id), kind)
		return nil
	})
}
