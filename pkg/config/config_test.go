package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, 120, cfg.Server.RateLimit)

	assert.Equal(t, "./data/feedback.db", cfg.SQLite.Path)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 60, cfg.Redis.TTLSec)

	assert.Empty(t, cfg.Chatbot.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Chatbot.Model)
	assert.Equal(t, 512, cfg.Chatbot.MaxTokens)

	assert.Equal(t, 90, cfg.Retention.DefaultDays)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("FEEDBACK_SERVER_PORT", "9090")
	t.Setenv("FEEDBACK_RETENTION_DEFAULTDAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Retention.DefaultDays)
}
