package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/cmd"
	"github.com/thoreinstein/gfsave/cmd/gfsave/commands/flags"
	"github.com/thoreinstein/gfsave/internal/cli"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
	"github.com/thoreinstein/gfsave/internal/update"
)

var updateCheckOnly bool

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false,
		"only report whether an update is available")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update gfsave to the latest release",
	Long: `Check the project's latest release and, if it is newer, download it,
verify its SHA-256 checksum and replace the running executable.

The previous executable is kept next to the new one with an .old suffix.
Development builds never update.`,
	Example: `  # Is there a newer version?
  gfsave update --check

  # Update without asking
  gfsave update --yes`,
	Args:        cobra.NoArgs,
	Annotations: noInit(),
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		s := cli.FromContext(ctx)
		w := c.OutOrStdout()

		u := update.New(cmd.Version, update.WithLogger(s.Logger))
		res, err := u.Check(ctx)
		if err != nil {
			return err
		}

		switch {
		case update.IsDevelopment(res.Current):
			fmt.Fprintf(w, "gfsave %s is a development build; updates are disabled\n", res.Current)
			return nil
		case !res.Available:
			fmt.Fprintf(w, "gfsave %s is up to date\n", res.Current)
			return nil
		}

		fmt.Fprintf(w, "Update available: %s -> %s\n", res.Current, res.Latest)
		if res.ReleaseURL != "" {
			fmt.Fprintf(w, "  %s\n", res.ReleaseURL)
		}
		if updateCheckOnly {
			return nil
		}

		if !flags.AssumeYes() {
			ok, err := s.Prompt.Confirm("Install it now?", true)
			if err != nil {
				return err
			}
			if !ok {
				return gferrors.ErrCancelled
			}
		}

		downloaded, err := u.Download(ctx, res.Info)
		if err != nil {
			return err
		}
		old, err := u.Apply(downloaded)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "✓ Updated to %s (previous version kept at %s)\n", res.Info.Version, old)
		return nil
	},
}
