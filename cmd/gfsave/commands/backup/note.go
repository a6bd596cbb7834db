package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/cli"
)

var noteClear bool

func init() {
	noteCmd.Flags().BoolVar(&noteClear, "clear", false, "remove the note")
	Cmd.AddCommand(noteCmd)
}

var noteCmd = &cobra.Command{
	Use:   "note <ref> [text...]",
	Short: "Show, set, or clear a backup's note",
	Long: `Show, set, or clear the note of a backup.

Notes belong to a save version, so manual and automatic backups of the
same identity share one note. With only a reference, the note is printed.`,
	Example: `  # Annotate the newest backup
  gfsave backup note latest before the final boss

  # Show a note
  gfsave backup note 2024-03-01_12-30-45

  # Remove it
  gfsave backup note 2024-03-01_12-30-45 --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text := strings.Join(args[1:], " ")
		return runNote(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), args[0], text, noteClear)
	},
}

func runNote(ctx context.Context, s *cli.Session, w io.Writer, ref, text string, clearNote bool) error {
	entry, err := s.Manager.Find(ref)
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if clearNote {
		text = ""
	} else if text == "" {
		if entry.Note == "" {
			fmt.Fprintf(w, "%s has no note\n", entry.Identity)
			return nil
		}
		fmt.Fprintln(w, entry.Note)
		return nil
	}

	return s.Locked(ctx, func() error {
		if err := s.Manager.SetNote(entry.Identity, text); err != nil {
			return err
		}
		if text == "" {
			fmt.Fprintf(w, "%s Cleared the note of %s\n", green("✓"), entry.Identity)
			return nil
		}
		fmt.Fprintf(w, "%s Noted %s: %s\n", green("✓"), entry.Identity, text)
		return nil
	})
}
