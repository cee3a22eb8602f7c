package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Queue.AIConcurrency)
	assert.Equal(t, 3, cfg.Queue.OCRConcurrency)
	assert.Equal(t, 10, cfg.Queue.NotificationConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.SLA.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout())
	assert.Equal(t, "CMP", cfg.App.TicketNumberPrefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUEUE_AI_CONCURRENCY", "8")
	t.Setenv("SLA_SWEEP_INTERVAL", "90s")
	t.Setenv("AI_BASE_URL", "https://ai.example.com/v1/")
	t.Setenv("QUEUE_BACKOFF_BASE", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Queue.AIConcurrency)
	assert.Equal(t, 90*time.Second, cfg.SLA.SweepInterval)
	assert.Equal(t, "https://ai.example.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Queue.BackoffBase)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}
