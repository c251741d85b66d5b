// ABOUTME: CLI commands for inspecting and editing the config file.
// ABOUTME: Provides config path, show and set subcommands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/djtroymx1/PepMetrics-sub000/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit configuration",
	Long: `Show or edit ~/.config/pepmetrics/config.json.

KEYS:

  backend        sqlite (default) or postgres
  data_dir       Directory holding pepmetrics.db
  database_url   PostgreSQL DSN for the postgres backend
  user_id        User that rows are stored under (default "local")
  target_days    Archive import window in days (default 90)
  assume_miles   Treat unit-less CSV distances as miles (true/false)
  gemini_model   Model used by 'analyze --insight'

Environment variables (PEPMETRICS_BACKEND, PEPMETRICS_DATA_DIR,
PEPMETRICS_DATABASE_URL, PEPMETRICS_USER, PEPMETRICS_TARGET_DAYS,
GEMINI_API_KEY) override the file. A .env in the working directory is
loaded first.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view := struct {
			Backend     string `json:"backend"`
			DataDir     string `json:"data_dir"`
			DatabaseURL string `json:"database_url,omitempty"`
			UserID      string `json:"user_id"`
			TargetDays  int    `json:"target_days"`
			AssumeMiles bool   `json:"assume_miles"`
			GeminiModel string `json:"gemini_model"`
			GeminiKey   bool   `json:"gemini_api_key_set"`
		}{
			Backend:     cfg.GetBackend(),
			DataDir:     cfg.GetDataDir(),
			DatabaseURL: cfg.DatabaseURL,
			UserID:      cfg.GetUserID(),
			TargetDays:  cfg.GetTargetDays(),
			AssumeMiles: cfg.GetAssumeMiles(),
			GeminiModel: cfg.GetGeminiModel(),
			GeminiKey:   cfg.GeminiAPIKey != "",
		}
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Environment overrides must not leak into the saved file.
		fileCfg, err := loadConfigFile()
		if err != nil {
			return err
		}
		if err := setConfigValue(fileCfg, args[0], args[1]); err != nil {
			return err
		}
		if err := fileCfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Set %s", args[0]))
		return nil
	},
}

// loadConfigFile reads only the config file, without env overrides.
func loadConfigFile() (*config.Config, error) {
	c := &config.Config{}
	data, err := os.ReadFile(config.GetConfigPath())
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func setConfigValue(c *config.Config, key, value string) error {
	switch key {
	case "backend":
		if value != "sqlite" && value != "postgres" {
			return fmt.Errorf("backend must be sqlite or postgres")
		}
		c.Backend = value
	case "data_dir":
		c.DataDir = value
	case "database_url":
		c.DatabaseURL = value
	case "user_id":
		c.UserID = value
	case "target_days":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("target_days must be a positive integer")
		}
		c.TargetDays = n
	case "assume_miles":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("assume_miles must be true or false")
		}
		c.AssumeMiles = &b
	case "gemini_model":
		c.GeminiModel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
