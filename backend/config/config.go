package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	ServerPort string

	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret   string
	JWTTTLHours int

	Timezone       string
	EditWindowDays int
	LookaheadDays  int
	MaxRangeDays   int // 0 disables the limit
	RequestTimeout time.Duration
	AllowOrigins   string

	LogLevel  string
	LogFormat string // text, json
	LogFile   string

	EncryptionKey        string
	GoogleClientID       string
	GoogleClientSecret   string
	FitbitClientID       string
	FitbitClientSecret   string
	OAuthRedirectBaseURL string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file, using environment variables")
	}

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "benefit"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "benefit.db"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		Timezone:     getEnv("TIMEZONE", "Pacific/Auckland"),
		AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),

		EncryptionKey:        getEnv("ENCRYPTION_KEY", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FitbitClientID:       getEnv("FITBIT_CLIENT_ID", ""),
		FitbitClientSecret:   getEnv("FITBIT_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}

	if cfg.JWTTTLHours, err = getEnvInt("JWT_TTL_HOURS", 72); err != nil {
		return nil, err
	}
	if cfg.EditWindowDays, err = getEnvInt("EDIT_WINDOW_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.LookaheadDays, err = getEnvInt("LOOKAHEAD_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.MaxRangeDays, err = getEnvInt("MAX_RANGE_DAYS", 366); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// IsProduction reports whether diagnostic detail must be hidden from API callers.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
