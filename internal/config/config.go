// ABOUTME: PepMetrics configuration management with backend selection.
// ABOUTME: Layers a .env file, the JSON config file and environment overrides.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/storage"
	"github.com/joho/godotenv"
)

// DefaultGeminiModel is used for insights when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Config stores pepmetrics configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "postgres".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage. SQLite puts
	// pepmetrics.db here. Supports ~ expansion for home directory.
	// Defaults to ~/.local/share/pepmetrics.
	DataDir string `json:"data_dir,omitempty"`

	// DatabaseURL is the postgres DSN, used when Backend is "postgres".
	DatabaseURL string `json:"database_url,omitempty"`

	// UserID scopes every stored row. Defaults to "local".
	UserID string `json:"user_id,omitempty"`

	// TargetDays is the archive import window in days.
	TargetDays int `json:"target_days,omitempty"`

	// AssumeMiles treats unit-less CSV distances as miles. Defaults to true.
	AssumeMiles *bool `json:"assume_miles,omitempty"`

	GeminiModel  string `json:"gemini_model,omitempty"`
	GeminiAPIKey string `json:"-"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetUserID returns the configured user, defaulting to "local".
func (c *Config) GetUserID() string {
	if c.UserID == "" {
		return "local"
	}
	return c.UserID
}

// GetTargetDays returns the import window, defaulting to 90 days.
func (c *Config) GetTargetDays() int {
	if c.TargetDays <= 0 {
		return garmin.DefaultTargetDays
	}
	return c.TargetDays
}

// GetAssumeMiles reports whether unit-less distances are miles.
func (c *Config) GetAssumeMiles() bool {
	if c.AssumeMiles == nil {
		return true
	}
	return *c.AssumeMiles
}

// GetGeminiModel returns the insight model name.
func (c *Config) GetGeminiModel() string {
	if c.GeminiModel == "" {
		return DefaultGeminiModel
	}
	return c.GeminiModel
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the configured backend.
func (c *Config) OpenStorage() (*storage.DB, error) {
	switch backend := c.GetBackend(); backend {
	case "sqlite":
		return storage.Open(filepath.Join(c.GetDataDir(), "pepmetrics.db"))
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend needs database_url or PEPMETRICS_DATABASE_URL")
		}
		return storage.OpenPostgres(c.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "pepmetrics", "config.json")
}

// Load reads an optional .env from the working directory, then the config
// file, then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PEPMETRICS_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("PEPMETRICS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PEPMETRICS_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("PEPMETRICS_USER"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("PEPMETRICS_TARGET_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PEPMETRICS_TARGET_DAYS %q: %w", v, err)
		}
		c.TargetDays = n
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	return nil
}

// Save writes config to disk. The API key is never persisted.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
