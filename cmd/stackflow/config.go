package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all stackflow server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath          string `json:"db_path"`
	LogLevel        string `json:"log_level"`
	SnapshotCron    string `json:"snapshot_cron"`
	SnapshotHistory int    `json:"snapshot_history"`
	RouteEngine     string `json:"route_engine"` // cel | expr
}

func defaultConfig() Config {
	return Config{
		DBPath:          filepath.Join(stackflowDir(), "stackflow.db"),
		LogLevel:        "info",
		SnapshotCron:    "0 * * * *",
		SnapshotHistory: 20,
		RouteEngine:     "cel",
	}
}

func stackflowDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stackflow"
	}
	return filepath.Join(home, ".stackflow")
}

func settingsPath() string {
	return filepath.Join(stackflowDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("STACKFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STACKFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STACKFLOW_SNAPSHOT_CRON"); v != "" {
		cfg.SnapshotCron = v
	}
	if v := os.Getenv("STACKFLOW_SNAPSHOT_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SnapshotHistory = n
		}
	}
	if v := os.Getenv("STACKFLOW_ROUTE_ENGINE"); v != "" {
		cfg.RouteEngine = v
	}

	return cfg
}
