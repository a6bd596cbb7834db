// Package backup provides CLI commands for managing save backups.
package backup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
)

// Colors for terminal output. fatih/color disables them when stdout is not
// a terminal or NO_COLOR is set.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Cmd is the root backup command.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage save backups",
	Long: `Manage backups of the GodForsaken save directory.

Each backup is a folder named after the save's identity, the time the game
last wrote ProfileBrief.ssp. Manual backups live in backup_root_path and
automatic ones in auto_backup_root_path; a save version is stored at most
once per root.

Commands that take a backup reference accept:
  2024-03-01_12-30-45         an identity (manual backups win)
  auto:2024-03-01_12-30-45    an identity in one root (manual:, auto:)
  latest                      the most recently played backup
  last                        the last backup created or restored
  /path/to/backup             a backup directory`,
	Example: `  # List all backups
  gfsave backup list

  # Back up the current save
  gfsave backup create --note "before the boss"

  # Restore, choosing from a list
  gfsave backup restore

  # Restore the most recent backup without confirmation
  gfsave backup restore latest --yes

  # Keep only the 10 newest automatic backups
  gfsave backup prune --kind auto --keep 10

  See Also:
    gfsave backup list    - List available backups
    gfsave backup create  - Back up the live save
    gfsave backup restore - Restore a backup
    gfsave backup delete  - Delete a backup
    gfsave backup note    - Annotate a backup
    gfsave backup prune   - Remove old backups`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// label is the one-line description of an entry used in pickers.
func label(e backup.Entry) string {
	s := fmt.Sprintf("%s  %-9s  %s", e.Identity, e.Kind, humanize.Time(e.ProfileModifiedAt))
	if e.Note != "" {
		s += "  " + truncate(e.Note, 40)
	}
	return s
}

// preview renders an entry for the fuzzy finder's preview window.
func preview(e backup.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identity: %s\n", e.Identity)
	fmt.Fprintf(&b, "Kind:     %s\n", e.Kind)
	fmt.Fprintf(&b, "Played:   %s (%s)\n", e.ProfileModifiedAt.Format("2006-01-02 15:04:05"), humanize.Time(e.ProfileModifiedAt))
	fmt.Fprintf(&b, "Path:     %s\n", e.Path)
	if e.Note != "" {
		fmt.Fprintf(&b, "\nNote:\n%s\n", e.Note)
	}
	return b.String()
}

// resolve finds the backup ref names. An empty ref lets the user pick one.
func resolve(_ context.Context, s *cli.Session, ref, title string) (*backup.Entry, error) {
	if ref != "" {
		return s.Manager.Find(ref)
	}

	entries, err := s.Manager.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.Wrap(backup.ErrNotFound, "no backups")
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = label(e)
	}
	idx, err := s.Prompt.Pick(title, labels, func(i int) string { return preview(entries[i]) })
	if err != nil {
		return nil, err
	}
	return &entries[idx], nil
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
