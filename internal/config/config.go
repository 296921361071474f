// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port       string
	DBPath     string
	WizardFile string // optional YAML step graph; empty uses the built-in one
	Telegram   TelegramConfig
	EditWindow time.Duration // 0 disables edit-and-resend
	ReaperTick time.Duration
	RateLimit  RateLimitConfig
	// OperatorFeed enables the /ws/operator live brief feed.
	OperatorFeed      bool
	OperatorFeedToken string
}

// TelegramConfig holds the bot credentials and delivery target.
type TelegramConfig struct {
	Token         string
	WebhookURL    string
	WebhookSecret string
	// OperatorChatID is a numeric chat id or an @channel username.
	OperatorChatID string
}

// RateLimitConfig bounds inbound updates per user.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		DBPath:     getEnv("DB_PATH", "./data/briefbot.db"),
		WizardFile: getEnv("WIZARD_FILE", ""),
		Telegram: TelegramConfig{
			Token:          getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebhookURL:     getEnv("TELEGRAM_WEBHOOK_URL", ""),
			WebhookSecret:  getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			OperatorChatID: getEnv("OPERATOR_CHAT_ID", ""),
		},
		EditWindow: getEnvDuration("EDIT_WINDOW", 0),
		ReaperTick: getEnvDuration("REAPER_INTERVAL", 5*time.Minute),
		RateLimit: RateLimitConfig{
			PerSecond: getEnvFloat("RATE_LIMIT_PER_SEC", 2),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 5),
		},
		OperatorFeed:      getEnvBool("OPERATOR_FEED_ENABLED", false),
		OperatorFeedToken: getEnv("OPERATOR_FEED_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.EditWindow < 0 {
		return fmt.Errorf("EDIT_WINDOW cannot be negative")
	}
	if c.ReaperTick <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be > 0")
	}
	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

// RequireTelegram checks the settings needed to talk to the Bot API.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN cannot be empty")
	}
	return nil
}

// IsContainer returns true if running inside a Docker container.
func IsContainer() bool {
	if os.Getenv("CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("15m") or plain seconds ("900").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
