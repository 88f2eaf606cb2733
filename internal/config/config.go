package config

import (
	"os"
	"strconv"

	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	TelegramToken string
	ChatID        int64
	AIAPIKey      string
	AIBaseURL     string
	AIModel       string
	Notifications models.NotificationSettings
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	notif := models.DefaultNotificationSettings()
	notif.Sound = getEnvBool("SOUND", notif.Sound)
	notif.Vibration = getEnvBool("VIBRATION", notif.Vibration)
	notif.RequireInteraction = getEnvBool("REQUIRE_INTERACTION", notif.RequireInteraction)
	notif.DaysAhead = clampDaysAhead(getEnvInt("DAYS_AHEAD", notif.DaysAhead))
	notif.QuietHoursEnabled = getEnvBool("QUIET_HOURS_ENABLED", notif.QuietHoursEnabled)
	notif.QuietHoursStart = getEnvOrDefault("QUIET_HOURS_START", notif.QuietHoursStart)
	notif.QuietHoursEnd = getEnvOrDefault("QUIET_HOURS_END", notif.QuietHoursEnd)

	return &Config{
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		ChatID:        getEnvInt64("TELEGRAM_CHAT_ID", 0),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		Notifications: notif,
	}, nil
}

// clampDaysAhead keeps the generation window inside the supported 1..30
// day range.
func clampDaysAhead(days int) int {
	if days < 1 {
		return 1
	}
	if days > 30 {
		return 30
	}
	return days
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
