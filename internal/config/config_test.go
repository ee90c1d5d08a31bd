package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Work.TotalDuration)
	assert.Equal(t, time.Minute, cfg.Work.ChunkSize)
	assert.Equal(t, time.Second, cfg.Work.SubInterval)
	assert.Equal(t, "0 * * * *", cfg.Schedule.CronExpr)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "/app/data", cfg.Storage.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNewFromEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("WORK_TOTAL_DURATION", "30s")
	t.Setenv("WORK_CHUNK_SIZE", "5s")
	t.Setenv("WORK_SUB_INTERVAL", "100ms")
	t.Setenv("WORK_CRON_EXPR", "*/5 * * * *")
	t.Setenv("RUN_ON_START", "false")
	t.Setenv("DATA_DIR", "/tmp/runner-data")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Work.TotalDuration)
	assert.Equal(t, 5*time.Second, cfg.Work.ChunkSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Work.SubInterval)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule.CronExpr)
	assert.False(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "/tmp/runner-data", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/tmp/runner-data", "runs.db"), cfg.Storage.DBPath())
}

func TestNewFromEnv_InvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("WORK_CHUNK_SIZE", "not-a-duration")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Work.ChunkSize)
}

func TestNewFromEnv_RejectsInvalidCronExpr(t *testing.T) {
	t.Setenv("WORK_CRON_EXPR", "every 5 minutes or so")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORK_CRON_EXPR")
}

func TestNewFromEnv_RejectsNonPositiveWork(t *testing.T) {
	t.Setenv("WORK_TOTAL_DURATION", "-1m")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORK_TOTAL_DURATION")
}

func TestNewFromEnv_Options(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Work.TotalDuration = 2 * time.Second
		c.Work.ChunkSize = time.Second
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Work.TotalDuration)
	assert.Equal(t, time.Second, cfg.Work.ChunkSize)
}
