package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds environment configuration for the CLI
type Config struct {
	// Logging Configuration
	Logging LoggingConfig

	// Session Configuration
	Session SessionConfig
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// SessionConfig holds overrides for the project config file
type SessionConfig struct {
	Profile  string // profile alias, overrides the selected profile
	APIKey   string // overrides the profile's api_key
	Email    string
	Password string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// Logging configuration - quiet by default, CLI output goes to stdout
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		Session: SessionConfig{
			Profile:  os.Getenv("IDSESSION_PROFILE"),
			APIKey:   os.Getenv("IDSESSION_API_KEY"),
			Email:    os.Getenv("IDSESSION_EMAIL"),
			Password: os.Getenv("IDSESSION_PASSWORD"),
		},
	}, nil
}
