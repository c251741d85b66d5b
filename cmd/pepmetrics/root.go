// ABOUTME: Root Cobra command for the pepmetrics CLI.
// ABOUTME: Loads config, builds the logger and opens storage via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/djtroymx1/PepMetrics-sub000/internal/config"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
	"github.com/djtroymx1/PepMetrics-sub000/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg    *config.Config
	db     *storage.DB
	svc    *tracker.Service
	logger *zap.Logger

	verbose  bool
	userFlag string
)

// noStorage lists commands that run without opening the database.
var noStorage = map[string]bool{
	"help":          true,
	"version":       true,
	"install-skill": true,
	"config":        true,
	"path":          true,
	"set":           true,
	"show":          true,
	"completion":    true,
	"migrate":       true,
}

var rootCmd = &cobra.Command{
	Use:   "pepmetrics",
	Short: "Peptide protocol tracker with Garmin biometrics",
	Long: `PepMetrics tracks peptide dosing protocols and correlates them with
biometrics imported from Garmin Connect exports.

WHAT IT TRACKS:

  Biometrics   sleep score and stages, HRV, resting HR, stress, body battery,
               steps, active minutes, calories, distance
  Activities   runs, rides, swims and other workouts from CSV, FIT or JSON
  Protocols    daily, specific weekdays, every N days, on/off cycles
  Doses        taken or skipped, per scheduled day

QUICK START:

  $ pepmetrics import ~/Downloads/garmin_export.zip    # Load the last 90 days
  $ pepmetrics protocol add BPC-157 250mcg             # Daily protocol
  $ pepmetrics schedule due                            # What is due today
  $ pepmetrics dose log abc123                         # Mark it taken
  $ pepmetrics analyze                                 # Weekly report

MCP INTEGRATION:

  Run 'pepmetrics mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "pepmetrics": { "command": "pepmetrics", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  SQLite at ~/.local/share/pepmetrics/pepmetrics.db by default. Set
  backend "postgres" and database_url in ~/.config/pepmetrics/config.json
  (or PEPMETRICS_BACKEND / PEPMETRICS_DATABASE_URL) to use PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if userFlag != "" {
			cfg.UserID = userFlag
		}

		if noStorage[cmd.Name()] {
			return nil
		}

		db, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		svc = tracker.New(db, cfg.GetUserID())
		logger.Debug("storage opened",
			zap.String("backend", string(db.Dialect())),
			zap.String("path", db.Path()),
			zap.String("user", cfg.GetUserID()))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if db != nil {
			err := db.Close()
			db = nil
			return err
		}
		return nil
	},
}

// newLogger builds a production zap logger; verbose lowers the level to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user ID (default from config, else \"local\")")
}
