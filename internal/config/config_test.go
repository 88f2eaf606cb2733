package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.AIBaseURL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.AIModel)
	assert.Equal(t, 7, cfg.Notifications.DaysAhead)
	assert.True(t, cfg.Notifications.Sound)
	assert.False(t, cfg.Notifications.QuietHoursEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/dosewatch")
	t.Setenv("TELEGRAM_CHAT_ID", "123456789")
	t.Setenv("DAYS_AHEAD", "14")
	t.Setenv("SOUND", "false")
	t.Setenv("QUIET_HOURS_ENABLED", "true")
	t.Setenv("QUIET_HOURS_START", "21:30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/dosewatch", cfg.DatabaseURI)
	assert.Equal(t, int64(123456789), cfg.ChatID)
	assert.Equal(t, 14, cfg.Notifications.DaysAhead)
	assert.False(t, cfg.Notifications.Sound)
	assert.True(t, cfg.Notifications.QuietHoursEnabled)
	assert.Equal(t, "21:30", cfg.Notifications.QuietHoursStart)
}

func TestLoadClampsDaysAhead(t *testing.T) {
	t.Setenv("DAYS_AHEAD", "90")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Notifications.DaysAhead)

	t.Setenv("DAYS_AHEAD", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Notifications.DaysAhead)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("SOUND", "maybe")
	t.Setenv("DAYS_AHEAD", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.ChatID)
	assert.True(t, cfg.Notifications.Sound)
	assert.Equal(t, 7, cfg.Notifications.DaysAhead)
}
