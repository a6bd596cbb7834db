package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
)

type pruneOptions struct {
	// keep is the number of backups to retain; below 0 uses max_history.
	keep int
	kind string
}

var pruneOpts = pruneOptions{keep: -1}

func init() {
	pruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", -1,
		"number of backups to retain per kind (default: max_history)")
	pruneCmd.Flags().StringVar(&pruneOpts.kind, "kind", "",
		"only prune manual or automatic backups")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old backups",
	Long: `Remove the oldest backups beyond the retention count.

By default, keeps max_history backups of each kind, the same rule gfsave
applies after every new backup. Use --keep for a different count and
--kind to limit pruning to one root.`,
	Example: `  # Apply max_history now
  gfsave backup prune

  # Keep only the 3 most recent manual backups
  gfsave backup prune --kind manual --keep 3

  # Remove all automatic backups
  gfsave backup prune --kind auto --keep 0

  See Also:
    gfsave backup list - List available backups`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return runPrune(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), pruneOpts)
	},
}

func runPrune(ctx context.Context, s *cli.Session, w io.Writer, opts pruneOptions) error {
	kinds := backup.Kinds()
	if opts.kind != "" {
		kind, err := backup.ParseKind(opts.kind)
		if err != nil {
			return err
		}
		kinds = []backup.Kind{kind}
	}

	return s.Locked(ctx, func() error {
		keep := opts.keep
		if keep < 0 {
			cfg, err := s.Store.Load()
			if err != nil {
				return err
			}
			if cfg.MaxHistory < 1 {
				fmt.Fprintln(w, "max_history is below 1, keeping all backups")
				return nil
			}
			keep = cfg.MaxHistory
		}

		pruned := 0
		for _, kind := range kinds {
			removed, err := s.Manager.Prune(kind, keep)
			pruned += len(removed)
			for _, e := range removed {
				fmt.Fprintf(w, "%s removed %s (%s)\n", green("✓"), e.Identity, e.Kind)
			}
			if err != nil {
				return errors.Wrapf(err, "pruning %s backups", kind)
			}
		}

		if pruned == 0 {
			fmt.Fprintln(w, "No backups to prune")
		} else {
			fmt.Fprintf(w, "\nTotal: removed %d backup(s)\n", pruned)
		}
		return nil
	})
}
