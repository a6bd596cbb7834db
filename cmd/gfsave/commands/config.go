package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/gfsave/internal/cli"
	"github.com/thoreinstein/gfsave/internal/config"
	gferrors "github.com/thoreinstein/gfsave/internal/errors"
)

var configListFormat string

func init() {
	configListCmd.Flags().StringVarP(&configListFormat, "format", "f", "yaml",
		"output format: yaml, json, toml")
	configCmd.Flags().AddFlag(configListCmd.Flags().Lookup("format"))

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gfsave configuration",
	Long: `Manage the gfsave configuration file.

Without a subcommand, lists all configuration values.

Keys:
  game_save_path                      live save directory of the game
  backup_root_path                    where manual backups are kept
  auto_backup_root_path               where automatic backups are kept
  last_backup                         most recently created or restored backup
  max_history                         backups kept per kind (below 1: keep all)
  restore_confirm_threshold_minutes   ask before a restore this far apart
  auto_launch_game                    start the game after a restore
  notes                               notes by save identity (gfsave backup note)`,
	Example: `  # List all configuration
  gfsave config

  # Get a specific value
  gfsave config get max_history

  # Set a value
  gfsave config set max_history 50

See Also: gfsave doctor`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Notes are printed one per line as "identity: note".`,
	Example: `  # Get the live save directory
  gfsave config get game_save_path

See Also: gfsave config set, gfsave config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

The new configuration is validated before it is written: max_history must
be at least 1, thresholds must not be negative, and backup roots must not
overlap the game save directory.`,
	Example: `  # Keep 50 backups of each kind
  gfsave config set max_history 50

  # Move the manual backups
  gfsave config set backup_root_path D:\GodForsaken\backups

See Also: gfsave config get, gfsave config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML, JSON, or TOML format.`,
	Example: `  # List all configuration
  gfsave config list

  # As TOML
  gfsave config list --format toml

See Also: gfsave config get, gfsave config set`,
	RunE: runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the configuration file path",
	Args:        cobra.NoArgs,
	Annotations: noInit(),
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FromContext(cmd.Context()).Store.Path())
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses the $EDITOR environment variable, or falls back to vi (notepad on
Windows). The file is checked after the editor exits.`,
	Example: `  # Open config in default editor
  gfsave config edit

  # Open with specific editor
  EDITOR=nano gfsave config edit

See Also: gfsave config list, gfsave doctor`,
	RunE: runConfigEdit,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := cli.FromContext(cmd.Context()).Store.Load()
	if err != nil {
		return err
	}
	return printConfigValue(cmd.OutOrStdout(), cfg, args[0])
}

func printConfigValue(w io.Writer, cfg *config.Config, key string) error {
	val, ok := cfg.Get(key)
	if !ok {
		return errors.Wrapf(config.ErrUnknownKey, "%q", key)
	}

	switch v := val.(type) {
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, v[k])
		}
	default:
		fmt.Fprintln(w, v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s := cli.FromContext(ctx)
	return s.Locked(ctx, func() error {
		return setConfigValue(s.Store, args[0], args[1], cmd.OutOrStdout())
	})
}

// setConfigValue sets key and saves the configuration. It rejects values
// that introduce validation errors the file did not already have.
func setConfigValue(store config.Store, key, value string, w io.Writer) error {
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	before := map[string]bool{}
	for _, err := range config.Validate(cfg) {
		before[err.Error()] = true
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	var introduced []string
	for _, err := range config.Validate(cfg) {
		if !before[err.Error()] {
			introduced = append(introduced, err.Error())
		}
	}
	if len(introduced) > 0 {
		return errors.Mark(
			errors.Newf("rejected %s=%s: %s", key, value, strings.Join(introduced, "; ")),
			gferrors.ErrInvalidConfig)
	}

	if err := store.Save(cfg); err != nil {
		return err
	}
	val, _ := cfg.Get(key)
	fmt.Fprintf(w, "Set %s = %v\n", key, val)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.FromContext(cmd.Context()).Store.Load()
	if err != nil {
		return err
	}
	return printConfig(cmd.OutOrStdout(), cfg, configListFormat)
}

func printConfig(w io.Writer, cfg *config.Config, format string) error {
	values := cfg.AsMap()

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err = yaml.Marshal(values)
	case "json":
		data, err = json.MarshalIndent(values, "", "  ")
		data = append(data, '\n')
	case "toml":
		data, err = toml.Marshal(values)
	default:
		return gferrors.NewUserError(errors.Newf("unknown format %q", format), "Valid formats: yaml, json, toml")
	}
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	_, err = w.Write(data)
	return errors.Wrap(err, "writing config")
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	s := cli.FromContext(cmd.Context())
	path := s.Store.Path()

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
		if runtime.GOOS == "windows" {
			editor = "notepad"
		}
	}

	// EDITOR may carry arguments, e.g. "code --wait".
	parts := strings.Fields(editor)
	c := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return errors.Wrap(err, "running editor")
	}

	cfg, err := s.Store.Load()
	if err != nil {
		return err
	}
	for _, verr := range config.Validate(cfg) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", verr)
	}
	return nil
}
