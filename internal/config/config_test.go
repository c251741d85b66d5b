// ABOUTME: Tests for pepmetrics configuration management.
// ABOUTME: Covers load, save, defaults, env overrides, backend selection, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points the config at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	for _, key := range []string{
		"PEPMETRICS_BACKEND", "PEPMETRICS_DATA_DIR", "PEPMETRICS_DATABASE_URL",
		"PEPMETRICS_USER", "PEPMETRICS_TARGET_DAYS", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
	if got := cfg.GetUserID(); got != "local" {
		t.Errorf("GetUserID() = %q, want %q", got, "local")
	}
	if got := cfg.GetTargetDays(); got != 90 {
		t.Errorf("GetTargetDays() = %d, want 90", got)
	}
	if !cfg.GetAssumeMiles() {
		t.Error("GetAssumeMiles() should default to true")
	}
	if got := cfg.GetGeminiModel(); got != DefaultGeminiModel {
		t.Errorf("GetGeminiModel() = %q, want %q", got, DefaultGeminiModel)
	}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestExplicitValues(t *testing.T) {
	km := false
	cfg := &Config{Backend: "postgres", UserID: "troy", TargetDays: 30, AssumeMiles: &km, DataDir: "/tmp/pep"}

	if got := cfg.GetBackend(); got != "postgres" {
		t.Errorf("GetBackend() = %q, want postgres", got)
	}
	if got := cfg.GetUserID(); got != "troy" {
		t.Errorf("GetUserID() = %q, want troy", got)
	}
	if got := cfg.GetTargetDays(); got != 30 {
		t.Errorf("GetTargetDays() = %d, want 30", got)
	}
	if cfg.GetAssumeMiles() {
		t.Error("GetAssumeMiles() should honor explicit false")
	}
	if got := cfg.GetDataDir(); got != "/tmp/pep" {
		t.Errorf("GetDataDir() = %q, want /tmp/pep", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/pep", filepath.Join(home, "data/pep")},
		{"data/pep", "data/pep"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	cfg := &Config{DataDir: "~/pep-data"}
	if got := cfg.GetDataDir(); got != filepath.Join(home, "pep-data") {
		t.Errorf("GetDataDir() = %q, want expanded path", got)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != "" || cfg.DataDir != "" {
		t.Errorf("Expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	km := false
	cfg := &Config{
		Backend:      "postgres",
		DatabaseURL:  "postgres://localhost/pep",
		UserID:       "troy",
		AssumeMiles:  &km,
		GeminiAPIKey: "secret",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	raw, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Error("API key must not be written to disk")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "postgres" || loaded.DatabaseURL != "postgres://localhost/pep" || loaded.UserID != "troy" {
		t.Errorf("loaded config mismatch: %+v", loaded)
	}
	if loaded.GetAssumeMiles() {
		t.Error("AssumeMiles=false should survive a round trip")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)

	cfg := &Config{Backend: "sqlite", UserID: "file-user"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	t.Setenv("PEPMETRICS_USER", "env-user")
	t.Setenv("PEPMETRICS_TARGET_DAYS", "45")
	t.Setenv("GEMINI_API_KEY", "k")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.UserID != "env-user" {
		t.Errorf("UserID = %q, want env-user", loaded.UserID)
	}
	if loaded.TargetDays != 45 {
		t.Errorf("TargetDays = %d, want 45", loaded.TargetDays)
	}
	if loaded.GeminiAPIKey != "k" {
		t.Errorf("GeminiAPIKey not read from env")
	}

	t.Setenv("PEPMETRICS_TARGET_DAYS", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric target days")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "sqlite"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "pepmetrics")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := isolate(t)

	configDir := filepath.Join(tmpDir, "pepmetrics")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := isolate(t)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "pepmetrics", "config.json")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{DataDir: tmpDir}
	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer repo.Close()

	dbPath := filepath.Join(tmpDir, "pepmetrics.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Expected pepmetrics.db to be created")
	}
}

func TestOpenStorageErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"unknown backend", &Config{Backend: "invalid", DataDir: "/tmp"}},
		{"postgres without url", &Config{Backend: "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.OpenStorage(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{GeminiAPIKey: "x"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}
