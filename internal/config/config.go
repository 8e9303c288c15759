package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `yaml:"port"`
	DatabaseType    string        `yaml:"database_type"`
	DatabasePath    string        `yaml:"db_path"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	SessionDuration time.Duration `yaml:"session_duration"`
	InviteCodeTTL   time.Duration `yaml:"invite_code_ttl"`
	StreakTimezone  string        `yaml:"streak_timezone"`
	RedisURL        string        `yaml:"redis_url"`
	AMQPURL         string        `yaml:"amqp_url"`
	AMQPQueue       string        `yaml:"amqp_queue"`
	SESRegion       string        `yaml:"ses_region"`
	SESFromEmail    string        `yaml:"ses_from_email"`
	LogLevel        string        `yaml:"log_level"`
}

// Load reads configuration from an optional .env file, environment variables
// and, when KIDCOINS_CONFIG names one, a YAML file that overrides them.
func Load() (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./kidcoins.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionDuration: getDuration("SESSION_DURATION", 30*24*time.Hour),
		InviteCodeTTL:   getDuration("INVITE_CODE_TTL", 30*24*time.Hour),
		StreakTimezone:  getEnv("STREAK_TIMEZONE", "UTC"),
		RedisURL:        getEnv("REDIS_URL", ""),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPQueue:       getEnv("AMQP_QUEUE", "kidcoins.events"),
		SESRegion:       getEnv("SES_REGION", "us-east-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("KIDCOINS_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.DatabaseType {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	}
	if _, err := time.LoadLocation(c.StreakTimezone); err != nil {
		return fmt.Errorf("invalid STREAK_TIMEZONE %q: %w", c.StreakTimezone, err)
	}
	return nil
}

// StreakLocation returns the location that defines a calendar day for streaks
func (c *Config) StreakLocation() *time.Location {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// overlayFile replaces any field set in the YAML file
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
