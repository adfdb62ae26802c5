// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Email  EmailConfig
	Engine EngineConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Addr      string
	DataDir   string
	StaticDir string
}

// EmailConfig holds SendGrid delivery settings. An empty APIKey switches the
// dispatcher to log-only mode.
type EmailConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// EngineConfig holds thresholds and cadences for the maintenance and
// compliance engines.
type EngineConfig struct {
	MinComplianceScore int
	CooldownDays       int
	FollowUpDays       int
	MaintenanceSpec    string
	WeeklyReviewSpec   string
	DocumentCheckSpec  string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:      getEnv("SERVER_ADDR", ":8090"),
			DataDir:   getEnv("DATA_DIR", "/data"),
			StaticDir: getEnv("STATIC_DIR", "./static"),
		},
		Email: EmailConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromName:  getEnv("EMAIL_FROM_NAME", "Building Operations"),
			FromEmail: getEnv("EMAIL_FROM_ADDRESS", "noreply@building-ops.local"),
		},
		Engine: EngineConfig{
			MinComplianceScore: getEnvInt("MIN_COMPLIANCE_SCORE", 70),
			CooldownDays:       getEnvInt("REMINDER_COOLDOWN_DAYS", 7),
			FollowUpDays:       getEnvInt("REVIEW_FOLLOWUP_DAYS", 14),
			MaintenanceSpec:    getEnv("MAINTENANCE_CRON", "10 0 * * *"),
			WeeklyReviewSpec:   getEnv("WEEKLY_REVIEW_CRON", "0 6 * * 1"),
			DocumentCheckSpec:  getEnv("DOCUMENT_CHECK_CRON", "30 6 * * *"),
		},
	}

	if cfg.Email.APIKey != "" && cfg.Email.FromEmail == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SENDGRID_API_KEY is set")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
