package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/gfsave/internal/backup"
	"github.com/thoreinstein/gfsave/internal/cli"
	"github.com/thoreinstein/gfsave/internal/guard"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the save and backup overview",
	Long: `Show whether the game is running, which save version is live, whether
it is backed up, and how many backups each root holds.`,
	Example: `  # Show status
  gfsave status

  # JSON output for scripting
  gfsave status --json`,
	Annotations: noInit(),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := collectStatus(ctx, cli.FromContext(ctx))
		if err != nil {
			return err
		}
		if statusJSON {
			return outputStatusJSON(cmd.OutOrStdout(), st)
		}
		outputStatusText(cmd.OutOrStdout(), st)
		return nil
	},
}

// statusOutput is the status of one configuration.
type statusOutput struct {
	ConfigPath string `json:"config_path"`
	SavePath   string `json:"save_path"`
	// GameRunning is nil when the platform cannot tell.
	GameRunning *bool      `json:"game_running"`
	Identity    string     `json:"identity,omitempty"`
	PlayedAt    *time.Time `json:"played_at,omitempty"`
	BackedUp    bool       `json:"backed_up"`
	LastBackup  string     `json:"last_backup,omitempty"`
	Manual      int        `json:"manual_backups"`
	Automatic   int        `json:"automatic_backups"`
	MaxHistory  int        `json:"max_history"`
}

func collectStatus(ctx context.Context, s *cli.Session) (*statusOutput, error) {
	cfg, err := s.Store.Load()
	if err != nil {
		return nil, err
	}

	st := &statusOutput{
		ConfigPath: s.Store.Path(),
		SavePath:   cfg.GameSavePath,
		LastBackup: cfg.LastBackup,
		MaxHistory: cfg.MaxHistory,
	}

	running, err := s.Guard.Running(ctx)
	switch {
	case errors.Is(err, guard.ErrUnsupported):
	case err != nil:
		s.Logger.Warn("could not check for the game", "error", err)
	default:
		st.GameRunning = &running
	}

	id, played, ok, err := s.Manager.LiveIdentity()
	if err != nil {
		return nil, err
	}
	if ok {
		st.Identity = id.String()
		st.PlayedAt = &played
	}

	entries, err := s.Manager.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		switch e.Kind {
		case backup.KindManual:
			st.Manual++
		case backup.KindAutomatic:
			st.Automatic++
		}
		if ok && e.Identity == id {
			st.BackedUp = true
		}
	}
	return st, nil
}

func outputStatusJSON(w io.Writer, st *statusOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(st), "encoding output")
}

func outputStatusText(w io.Writer, st *statusOutput) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	game := gray("unknown")
	if st.GameRunning != nil {
		game = green("not running")
		if *st.GameRunning {
			game = yellow("running")
		}
	}

	save := yellow("no save yet")
	if st.Identity != "" {
		state := yellow("not backed up")
		if st.BackedUp {
			state = green("backed up")
		}
		save = fmt.Sprintf("%s (played %s, %s)", st.Identity, humanize.Time(*st.PlayedAt), state)
	}

	last := gray("none")
	if st.LastBackup != "" {
		last = st.LastBackup
	}

	fmt.Fprintf(w, "Game:         %s\n", game)
	fmt.Fprintf(w, "Save:         %s\n", save)
	fmt.Fprintf(w, "Save folder:  %s\n", st.SavePath)
	fmt.Fprintf(w, "Last backup:  %s\n", last)
	fmt.Fprintf(w, "Backups:      %d manual, %d automatic (keeping %s each)\n",
		st.Manual, st.Automatic, keepLabel(st.MaxHistory))
	fmt.Fprintf(w, "Config:       %s\n", st.ConfigPath)
}

func keepLabel(maxHistory int) string {
	if maxHistory < 1 {
		return "all"
	}
	return fmt.Sprintf("%d", maxHistory)
}
