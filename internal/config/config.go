package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Jobs     JobsConfig
	Cascade  CascadeConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds store connection settings
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
	// Transactions is auto, on or off. auto probes the server.
	Transactions string
}

// AuthConfig holds JWT and login settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
	// MaxLoginAttempts failed logins lock the account for LockoutDuration.
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

// JobsConfig holds lifecycle scheduler settings
type JobsConfig struct {
	Enabled              bool
	StatusInterval       time.Duration
	ReportInterval       time.Duration
	LogCleanupInterval   time.Duration
	UserActivityInterval time.Duration
	TickTimeout          time.Duration
	LogRetention         time.Duration
	InactivityThreshold  time.Duration
}

// CascadeConfig bounds multi-collection operations
type CascadeConfig struct {
	Timeout time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	Dir   string
}

// Database drivers
const (
	DriverSurrealDB = "surrealdb"
	DriverMemory    = "memory"
)

const minProductionSecretLength = 32

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present, and the
// TOML file named by CONFIG_FILE is applied last for keys the environment
// does not set.
func Load() (*Config, error) {
	// .env is optional; variables may come from the process environment
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Env:          getEnv("SERVER_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", DriverSurrealDB),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "8000"),
			Namespace:    getEnv("DB_NAMESPACE", "eventsphere"),
			Database:     getEnv("DB_DATABASE", "main"),
			User:         getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASSWORD", "root"),
			Transactions: getEnv("DB_TRANSACTIONS", "auto"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "eventsphere"),
			TokenTTL:  getDurationEnv("JWT_TOKEN_TTL", 24*time.Hour),

			MaxLoginAttempts: getIntEnv("MAX_LOGIN_ATTEMPTS", 5),
			LockoutDuration:  getDurationEnv("LOCKOUT_DURATION", 15*time.Minute),
		},
		Jobs: JobsConfig{
			Enabled:              getBoolEnv("JOBS_ENABLED", true),
			StatusInterval:       getDurationEnv("JOBS_STATUS_INTERVAL", 5*time.Minute),
			ReportInterval:       getDurationEnv("JOBS_REPORT_INTERVAL", 24*time.Hour),
			LogCleanupInterval:   getDurationEnv("JOBS_LOG_CLEANUP_INTERVAL", 7*24*time.Hour),
			UserActivityInterval: getDurationEnv("JOBS_USER_ACTIVITY_INTERVAL", 24*time.Hour),
			TickTimeout:          getDurationEnv("JOBS_TICK_TIMEOUT", 2*time.Minute),
			LogRetention:         getDurationEnv("JOBS_LOG_RETENTION", 30*24*time.Hour),
			InactivityThreshold:  getDurationEnv("JOBS_INACTIVITY_THRESHOLD", 90*24*time.Hour),
		},
		Cascade: CascadeConfig{
			Timeout: getDurationEnv("CASCADE_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dir:   getEnv("LOG_DIR", ""),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := ApplyFileConfig(cfg, fc, envIsSet); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	// Database validation
	switch c.Database.Driver {
	case DriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_DRIVER=memory is not allowed in production"))
		}
	case DriverSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be '%s' or '%s', got '%s'", DriverSurrealDB, DriverMemory, c.Database.Driver))
	}
	switch c.Database.Transactions {
	case "auto", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("DB_TRANSACTIONS must be 'auto', 'on', or 'off', got '%s'", c.Database.Transactions))
	}

	// Auth validation - critical for production
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_TTL must be positive"))
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("MAX_LOGIN_ATTEMPTS must be positive"))
	}
	if c.Auth.LockoutDuration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION must be positive"))
	}

	// Jobs validation
	if c.Jobs.Enabled {
		for name, d := range map[string]time.Duration{
			"JOBS_STATUS_INTERVAL":        c.Jobs.StatusInterval,
			"JOBS_REPORT_INTERVAL":        c.Jobs.ReportInterval,
			"JOBS_LOG_CLEANUP_INTERVAL":   c.Jobs.LogCleanupInterval,
			"JOBS_USER_ACTIVITY_INTERVAL": c.Jobs.UserActivityInterval,
			"JOBS_TICK_TIMEOUT":           c.Jobs.TickTimeout,
		} {
			if d <= 0 {
				errs = append(errs, fmt.Errorf("%s must be positive", name))
			}
		}
	}
	if c.Jobs.LogRetention <= 0 {
		errs = append(errs, errors.New("JOBS_LOG_RETENTION must be positive"))
	}
	if c.Jobs.InactivityThreshold <= 0 {
		errs = append(errs, errors.New("JOBS_INACTIVITY_THRESHOLD must be positive"))
	}

	if c.Cascade.Timeout <= 0 {
		errs = append(errs, errors.New("CASCADE_TIMEOUT must be positive"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got '%s'", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func envIsSet(key string) bool {
	value, ok := os.LookupEnv(key)
	return ok && value != ""
}
