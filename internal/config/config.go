package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// SchedulerConfig holds the parameters of the spaced-repetition algorithm.
type SchedulerConfig struct {
	RequestRetention float64 `mapstructure:"request_retention" validate:"gt=0,lt=1"`
	MaximumInterval  float64 `mapstructure:"maximum_interval" validate:"gte=1"`
	EnableFuzz       bool    `mapstructure:"enable_fuzz"`
	EnableShortTerm  bool    `mapstructure:"enable_short_term"`
}

// ReviewConfig contains settings for review sessions.
type ReviewConfig struct {
	// DefaultFilter selects the session items when a request names none.
	DefaultFilter string `mapstructure:"default_filter" validate:"required,oneof=today now all"`
	// MaxSessions bounds the number of sessions held in memory at once.
	MaxSessions int `mapstructure:"max_sessions" validate:"gte=1"`
	// SessionIdleTimeout is how long an unused session is kept.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" validate:"gt=0"`
}
