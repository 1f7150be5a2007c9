package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 1000, cfg.Historical.BatchSize)
	assert.Equal(t, 3, cfg.Historical.MaxRetries)
	assert.Equal(t, 15*time.Minute, cfg.Historical.TickStep)
	assert.Equal(t, "./data/historical_progress.json", cfg.Historical.CheckpointPath)
	assert.Equal(t, time.Second, cfg.Live.TickInterval)
	assert.Zero(t, cfg.Live.SimStep, "the live clock follows wall time by default")
	assert.Equal(t, "America/New_York", cfg.Generator.Location.String())
	assert.Equal(t, 0.05, cfg.Generator.ArrivalsPerSpotHour)
	assert.False(t, cfg.Push.Enabled())
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-25", "2025-01-01"}, cfg.Generator.Holidays)
	assert.True(t, cfg.Live.AutoStart)
	assert.Equal(t, 5*time.Minute, cfg.Live.BurstStep)
	assert.Zero(t, cfg.Live.SimStep)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "database:\n  driver: mysql\n"},
		{name: "tick does not divide a day", content: "historical:\n  tick_minutes: 7\n"},
		{name: "bad holiday", content: "generator:\n  holidays: [\"12/25/2024\"]\n"},
		{name: "bad timezone", content: "generator:\n  timezone: Mars/Olympus\n"},
		{name: "malformed yaml", content: "server: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
