package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config in TOML. Durations are strings such as "5m".
type FileConfig struct {
	Server struct {
		Port         string `toml:"port"`
		Env          string `toml:"env"`
		ReadTimeout  string `toml:"read_timeout"`
		WriteTimeout string `toml:"write_timeout"`
	} `toml:"server"`

	Database struct {
		Driver       string `toml:"driver"`
		Host         string `toml:"host"`
		Port         string `toml:"port"`
		Namespace    string `toml:"namespace"`
		Database     string `toml:"database"`
		User         string `toml:"user"`
		Password     string `toml:"password"`
		Transactions string `toml:"transactions"`
	} `toml:"database"`

	Auth struct {
		JWTSecret string `toml:"jwt_secret"`
		Issuer    string `toml:"issuer"`
		TokenTTL  string `toml:"token_ttl"`

		MaxLoginAttempts *int    `toml:"max_login_attempts"`
		LockoutDuration  string `toml:"lockout_duration"`
	} `toml:"auth"`

	Jobs struct {
		Enabled              *bool  `toml:"enabled"`
		StatusInterval       string `toml:"status_interval"`
		ReportInterval       string `toml:"report_interval"`
		LogCleanupInterval   string `toml:"log_cleanup_interval"`
		UserActivityInterval string `toml:"user_activity_interval"`
		TickTimeout          string `toml:"tick_timeout"`
		LogRetention         string `toml:"log_retention"`
		InactivityThreshold  string `toml:"inactivity_threshold"`
	} `toml:"jobs"`

	Cascade struct {
		Timeout string `toml:"timeout"`
	} `toml:"cascade"`

	Log struct {
		Level string `toml:"level"`
		Dir   string `toml:"dir"`
	} `toml:"log"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig copies non-empty file values into cfg, skipping every key
// for which envSet reports an environment override.
func ApplyFileConfig(cfg *Config, fc FileConfig, envSet func(key string) bool) error {
	s := setter{envSet: envSet}

	s.setString("SERVER_PORT", fc.Server.Port, &cfg.Server.Port)
	s.setString("SERVER_ENV", fc.Server.Env, &cfg.Server.Env)
	s.setDuration("SERVER_READ_TIMEOUT", fc.Server.ReadTimeout, &cfg.Server.ReadTimeout)
	s.setDuration("SERVER_WRITE_TIMEOUT", fc.Server.WriteTimeout, &cfg.Server.WriteTimeout)

	s.setString("DB_DRIVER", fc.Database.Driver, &cfg.Database.Driver)
	s.setString("DB_HOST", fc.Database.Host, &cfg.Database.Host)
	s.setString("DB_PORT", fc.Database.Port, &cfg.Database.Port)
	s.setString("DB_NAMESPACE", fc.Database.Namespace, &cfg.Database.Namespace)
	s.setString("DB_DATABASE", fc.Database.Database, &cfg.Database.Database)
	s.setString("DB_USER", fc.Database.User, &cfg.Database.User)
	s.setString("DB_PASSWORD", fc.Database.Password, &cfg.Database.Password)
	s.setString("DB_TRANSACTIONS", fc.Database.Transactions, &cfg.Database.Transactions)

	s.setString("JWT_SECRET", fc.Auth.JWTSecret, &cfg.Auth.JWTSecret)
	s.setString("JWT_ISSUER", fc.Auth.Issuer, &cfg.Auth.Issuer)
	s.setDuration("JWT_TOKEN_TTL", fc.Auth.TokenTTL, &cfg.Auth.TokenTTL)
	s.setInt("MAX_LOGIN_ATTEMPTS", fc.Auth.MaxLoginAttempts, &cfg.Auth.MaxLoginAttempts)
	s.setDuration("LOCKOUT_DURATION", fc.Auth.LockoutDuration, &cfg.Auth.LockoutDuration)

	s.setBool("JOBS_ENABLED", fc.Jobs.Enabled, &cfg.Jobs.Enabled)
	s.setDuration("JOBS_STATUS_INTERVAL", fc.Jobs.StatusInterval, &cfg.Jobs.StatusInterval)
	s.setDuration("JOBS_REPORT_INTERVAL", fc.Jobs.ReportInterval, &cfg.Jobs.ReportInterval)
	s.setDuration("JOBS_LOG_CLEANUP_INTERVAL", fc.Jobs.LogCleanupInterval, &cfg.Jobs.LogCleanupInterval)
	s.setDuration("JOBS_USER_ACTIVITY_INTERVAL", fc.Jobs.UserActivityInterval, &cfg.Jobs.UserActivityInterval)
	s.setDuration("JOBS_TICK_TIMEOUT", fc.Jobs.TickTimeout, &cfg.Jobs.TickTimeout)
	s.setDuration("JOBS_LOG_RETENTION", fc.Jobs.LogRetention, &cfg.Jobs.LogRetention)
	s.setDuration("JOBS_INACTIVITY_THRESHOLD", fc.Jobs.InactivityThreshold, &cfg.Jobs.InactivityThreshold)

	s.setDuration("CASCADE_TIMEOUT", fc.Cascade.Timeout, &cfg.Cascade.Timeout)

	s.setString("LOG_LEVEL", fc.Log.Level, &cfg.Log.Level)
	s.setString("LOG_DIR", fc.Log.Dir, &cfg.Log.Dir)

	return s.err
}

type setter struct {
	envSet func(string) bool
	err    error
}

func (s *setter) skip(key string) bool {
	return s.err != nil || (s.envSet != nil && s.envSet(key))
}

func (s *setter) setString(key, value string, dst *string) {
	if value == "" || s.skip(key) {
		return
	}
	*dst = value
}

func (s *setter) setDuration(key, value string, dst *time.Duration) {
	if value == "" || s.skip(key) {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		s.err = fmt.Errorf("invalid duration for %s: %w", key, err)
		return
	}
	*dst = d
}

func (s *setter) setBool(key string, value *bool, dst *bool) {
	if value == nil || s.skip(key) {
		return
	}
	*dst = *value
}

func (s *setter) setInt(key string, value *int, dst *int) {
	if value == nil || s.skip(key) {
		return
	}
	*dst = *value
}
