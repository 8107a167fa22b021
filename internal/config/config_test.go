package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-monitor/analytics/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8002", cfg.HTTPPort)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Window())
	assert.Equal(t, domain.DefaultThresholds, cfg.Thresholds())
	assert.Empty(t, cfg.StaticAPIKeys)
	assert.Equal(t, "created_at", cfg.ReadingsTimeColumn)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "14")
	t.Setenv("CRITICAL_PERCENT", "10")
	t.Setenv("LOW_PERCENT", "25.5")
	t.Setenv("EVAL_INTERVAL", "90s")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("STATIC_API_KEYS", " ops-key , ,depot-key")

	cfg := Load()

	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, 10.0, cfg.CriticalPercent)
	assert.Equal(t, 25.5, cfg.LowPercent)
	assert.Equal(t, 90*time.Second, cfg.EvalInterval)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, []string{"ops-key", "depot-key"}, cfg.StaticAPIKeys)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "a week")
	t.Setenv("LOW_PERCENT", "thirty")
	t.Setenv("ALERT_DEDUP_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, domain.DefaultThresholds.LowPercent, cfg.LowPercent)
	assert.Equal(t, 6*time.Hour, cfg.AlertDedupTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero window", func(c *Config) { c.WindowDays = 0 }},
		{"critical above low", func(c *Config) { c.CriticalPercent = 40 }},
		{"critical equals low", func(c *Config) { c.CriticalPercent = c.LowPercent }},
		{"negative critical days", func(c *Config) { c.CriticalDays = -1 }},
		{"no workers", func(c *Config) { c.EvalWorkers = 0 }},
		{"zero eval interval", func(c *Config) { c.EvalInterval = 0 }},
		{"negative eval interval", func(c *Config) { c.EvalInterval = -time.Minute }},
		{"zero flush interval", func(c *Config) { c.LogFlushIntervalMS = 0 }},
		{"negative flush interval", func(c *Config) { c.LogFlushIntervalMS = -5 }},
		{"zero batch size", func(c *Config) { c.LogBatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsZeroIntervalsFromEnvironment(t *testing.T) {
	t.Setenv("EVAL_INTERVAL", "0s")
	t.Setenv("LOG_FLUSH_INTERVAL_MS", "0")

	cfg := Load()

	assert.Equal(t, time.Duration(0), cfg.EvalInterval)
	assert.ErrorContains(t, cfg.Validate(), "EVAL_INTERVAL")
}
