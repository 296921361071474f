package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DB_PATH", "WIZARD_FILE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL",
		"TELEGRAM_WEBHOOK_SECRET", "OPERATOR_CHAT_ID", "EDIT_WINDOW", "REAPER_INTERVAL",
		"RATE_LIMIT_PER_SEC", "RATE_LIMIT_BURST", "OPERATOR_FEED_ENABLED",
	} {
		t.Setenv(k, "")
	}
	// t.Setenv cannot unset; empty values exercise the parse fallbacks instead.
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "./data/briefbot.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.EditWindow)
	assert.Equal(t, 5*time.Minute, cfg.ReaperTick)
	assert.Equal(t, 2.0, cfg.RateLimit.PerSecond)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.False(t, cfg.OperatorFeed)
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", "/tmp/b.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPERATOR_CHAT_ID", "@briefs")
	t.Setenv("EDIT_WINDOW", "15m")
	t.Setenv("REAPER_INTERVAL", "30")
	t.Setenv("RATE_LIMIT_PER_SEC", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("OPERATOR_FEED_ENABLED", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "@briefs", cfg.Telegram.OperatorChatID)
	assert.Equal(t, 15*time.Minute, cfg.EditWindow)
	assert.Equal(t, 30*time.Second, cfg.ReaperTick)
	assert.Equal(t, 0.5, cfg.RateLimit.PerSecond)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.True(t, cfg.OperatorFeed)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:       "8080",
			DBPath:     "x.db",
			ReaperTick: time.Minute,
			RateLimit:  RateLimitConfig{PerSecond: 1, Burst: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"empty port":       func(c *Config) { c.Port = "" },
		"empty db":         func(c *Config) { c.DBPath = "" },
		"negative window":  func(c *Config) { c.EditWindow = -time.Second },
		"zero reaper tick": func(c *Config) { c.ReaperTick = 0 },
		"zero rate":        func(c *Config) { c.RateLimit.PerSecond = 0 },
		"zero burst":       func(c *Config) { c.RateLimit.Burst = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("D", "garbage")
	assert.Equal(t, time.Minute, getEnvDuration("D", time.Minute))
	t.Setenv("D", "2h")
	assert.Equal(t, 2*time.Hour, getEnvDuration("D", time.Minute))
	t.Setenv("D", "0")
	assert.Equal(t, time.Duration(0), getEnvDuration("D", time.Minute))
}
