package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackflowhq/stackflow/internal/expressions"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0 * * * *", cfg.SnapshotCron)
	assert.Equal(t, 20, cfg.SnapshotHistory)
	assert.Equal(t, "cel", cfg.RouteEngine)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // keep any real settings.json out of the layering
	t.Setenv("STACKFLOW_DB_PATH", "/tmp/custom.db")
	t.Setenv("STACKFLOW_LOG_LEVEL", "debug")
	t.Setenv("STACKFLOW_SNAPSHOT_CRON", "*/5 * * * *")
	t.Setenv("STACKFLOW_SNAPSHOT_HISTORY", "7")
	t.Setenv("STACKFLOW_ROUTE_ENGINE", "expr")

	cfg := loadConfig()
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "*/5 * * * *", cfg.SnapshotCron)
	assert.Equal(t, 7, cfg.SnapshotHistory)
	assert.Equal(t, "expr", cfg.RouteEngine)
}

func TestLoadConfigBadHistoryIgnored(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STACKFLOW_SNAPSHOT_HISTORY", "lots")
	cfg := loadConfig()
	assert.Equal(t, 20, cfg.SnapshotHistory)
}

func TestNewRouteChecker(t *testing.T) {
	checker, err := newRouteChecker("cel")
	require.NoError(t, err)
	assert.IsType(t, &expressions.CELEngine{}, checker)

	checker, err = newRouteChecker("")
	require.NoError(t, err)
	assert.IsType(t, &expressions.CELEngine{}, checker)

	checker, err = newRouteChecker("expr")
	require.NoError(t, err)
	assert.IsType(t, &expressions.ExprEngine{}, checker)

	_, err = newRouteChecker("jsonata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsonata")
}
