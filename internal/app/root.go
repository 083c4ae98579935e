package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/uassist/internal/config"
	"github.com/blackwell-systems/uassist/internal/guidmap"
	"github.com/blackwell-systems/uassist/internal/logging"
)

var (
	dbPath     string
	guidsPath  string
	configPath string
	logLevel   string

	// cfg and guids are set by setupRuntime before any subcommand runs.
	cfg   *config.Config
	guids *guidmap.Table

	// RootCmd is the root command for uassist
	RootCmd = &cobra.Command{
		Use:   "uassist",
		Short: "Decode Windows UserAssist program execution evidence",
		Long: `uassist extracts the UserAssist entries Windows Explorer keeps for each user
and decodes them into program execution evidence.

Each entry yields the program name (ROT13 decoded, known folder GUIDs replaced
by readable labels), its run counter, focus count, total focus time and the
last time it was executed.

Sources:
  • live      the current user's registry (Windows only)
  • offline   one or more NTUSER.DAT hive files
  • watch     a drop directory that receives NTUSER.DAT files

Every extraction is written to a CSV (or JSON Lines) file and recorded in a
local case database, which 'uassist history' reads back.`,
		Example: `  # Decode an acquired hive
  uassist offline NTUSER.DAT

  # Decode the current user's registry and print each record
  uassist live --show-output

  # Decode several hives into compressed JSON Lines
  uassist offline --format jsonl --compress alice.dat bob.dat

  # List stored runs
  uassist history`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupRuntime,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "case database path (default: ~/.uassist/uassist.db)")
	RootCmd.PersistentFlags().StringVar(&guidsPath, "guids", "", "GUID,Name CSV replacing the built-in known folder table")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/uassist/config.toml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(liveCmd)
	RootCmd.AddCommand(offlineCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(historyCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// setupRuntime loads the config file, installs the process logger and loads
// the GUID table. Flags override config values.
func setupRuntime(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	levelName := cfg.LogLevel
	if logLevel != "" {
		levelName = logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, isatty.IsTerminal(os.Stderr.Fd()))
	logging.SetDefault(logger)
	cmd.SetContext(logging.With(cmd.Context(), logger))

	path := cfg.GUIDs
	if guidsPath != "" {
		path = guidsPath
	}
	if path != "" {
		guids, err = guidmap.Load(path)
	} else {
		guids, err = guidmap.Default()
	}
	if err != nil {
		return err
	}
	return nil
}

// getDBPath returns the database path, using the flag value, the config file
// or the default under ~/.uassist.
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB, nil
	}

	dir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "uassist.db"), nil
}
