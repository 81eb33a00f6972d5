package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 8, cfg.BroadcastWorkers)
	assert.Equal(t, 64, cfg.ClientBuffer)
	assert.Equal(t, SinkLog, cfg.ResultsSink)
	assert.Equal(t, 10*time.Minute, cfg.NameCacheTTL)
	assert.Equal(t, 72*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, logrus.InfoLevel, cfg.Logger().GetLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BROADCAST_WORKERS", "2")
	t.Setenv("RESULTS_SINK", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("NAME_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.BroadcastWorkers)
	assert.Equal(t, SinkRedis, cfg.ResultsSink)
	assert.Equal(t, 30*time.Second, cfg.NameCacheTTL)
	assert.Equal(t, logrus.DebugLevel, cfg.Logger().GetLevel())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad number", map[string]string{"BROADCAST_WORKERS": "many"}},
		{"zero workers", map[string]string{"BROADCAST_WORKERS": "0"}},
		{"unknown sink", map[string]string{"RESULTS_SINK": "kafka"}},
		{"redis sink without addr", map[string]string{"RESULTS_SINK": "redis"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
