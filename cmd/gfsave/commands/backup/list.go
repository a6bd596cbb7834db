package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
)

type listOptions struct {
	kind string
	json bool
}

var listOpts listOptions

func init() {
	listCmd.Flags().StringVar(&listOpts.kind, "kind", "", "only list manual or automatic backups")
	listCmd.Flags().BoolVar(&listOpts.json, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Long: `List backups from both roots, most recently played first.

The backup recorded as last_backup is marked with *, and the save version
that is currently live is marked with "live".`,
	Example: `  # List all backups
  gfsave backup list

  # Only automatic backups
  gfsave backup list --kind auto

  # Output as JSON
  gfsave backup list --json

  See Also:
    gfsave backup restore - Restore a backup
    gfsave backup create  - Create a new backup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return runList(ctx, cli.FromContext(ctx), cmd.OutOrStdout(), listOpts)
	},
}

func runList(_ context.Context, s *cli.Session, w io.Writer, opts listOptions) error {
	entries, err := s.Manager.List()
	if err != nil {
		return err
	}

	if opts.kind != "" {
		kind, err := backup.ParseKind(opts.kind)
		if err != nil {
			return err
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if opts.json {
		if entries == nil {
			entries = []backup.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(entries), "encoding output")
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No backups available")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: gfsave backup create")
		return nil
	}

	cfg, err := s.Store.Load()
	if err != nil {
		return err
	}
	live, _, _, err := s.Manager.LiveIdentity()
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.AddRow("", "IDENTITY", "KIND", "PLAYED", "NOTE")
	for _, e := range entries {
		mark := ""
		if e.Path == cfg.LastBackup {
			mark = "*"
		}
		id := e.Identity.String()
		if e.Identity == live {
			id += " (live)"
		}
		table.AddRow(mark, id, e.Kind, humanize.Time(e.ProfileModifiedAt), e.Note)
	}
	fmt.Fprintln(w, table)
	return nil
}
