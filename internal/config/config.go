package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port          string
	LogLevel      string
	StorageDriver string
	DBConn        string
	JWTSecret     string
	TokenTTL      time.Duration

	Reminders ReminderConfig
	SMTP      SMTPConfig
}

// ReminderConfig controls the recurring transaction reminder job
type ReminderConfig struct {
	Enabled     bool
	Schedule    string
	DaysAhead   int
	Concurrency int
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	SenderEmail string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverMemory),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=finance sslmode=disable"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		Reminders: ReminderConfig{
			Schedule: getEnv("REMINDER_SCHEDULE", "0 8 * * *"),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnv("SMTP_PORT", "587"),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			SenderEmail: getEnv("SENDER_EMAIL", ""),
		},
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.Reminders.Enabled, err = strconv.ParseBool(getEnv("REMINDERS_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid REMINDERS_ENABLED: %w", err)
	}
	if cfg.Reminders.DaysAhead, err = strconv.Atoi(getEnv("REMINDER_DAYS_AHEAD", "3")); err != nil || cfg.Reminders.DaysAhead < 0 {
		return nil, fmt.Errorf("invalid REMINDER_DAYS_AHEAD: %q", os.Getenv("REMINDER_DAYS_AHEAD"))
	}
	if cfg.Reminders.Concurrency, err = strconv.Atoi(getEnv("REMINDER_CONCURRENCY", "4")); err != nil || cfg.Reminders.Concurrency < 1 {
		return nil, fmt.Errorf("invalid REMINDER_CONCURRENCY: %q", os.Getenv("REMINDER_CONCURRENCY"))
	}

	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Reminders.Enabled {
		if _, err := cron.ParseStandard(cfg.Reminders.Schedule); err != nil {
			return nil, fmt.Errorf("invalid REMINDER_SCHEDULE: %w", err)
		}
		if cfg.SMTP.Host == "" || cfg.SMTP.SenderEmail == "" {
			return nil, fmt.Errorf("SMTP_HOST and SENDER_EMAIL are required when reminders are enabled")
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
