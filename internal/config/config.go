package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Jobs      JobsConfig      `mapstructure:"jobs"      validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"    validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                int    `mapstructure:"port"                  validate:"required,gt=0,lt=65536"`
	LogLevel            string `mapstructure:"log_level"             validate:"required,oneof=debug info warn error"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"  validate:"gte=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"required,gte=4,lte=31"`
}

// SMTPConfig contains the settings for the outbound mail transport.
// When Enabled is false the server logs emails instead of sending them,
// so the connection settings may stay empty in development.
type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"     validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port"     validate:"required_if=Enabled true,gte=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"     validate:"required_if=Enabled true,omitempty,email"`
}

// JobsConfig contains the settings for the background job runner.
type JobsConfig struct {
	QueueSize          int `mapstructure:"queue_size"            validate:"required,gt=0"`
	WorkerCount        int `mapstructure:"worker_count"          validate:"required,gt=0"`
	StuckJobAgeMinutes int `mapstructure:"stuck_job_age_minutes" validate:"required,gt=0"`
}

// NotifyConfig contains the settings for email notification delivery
// and the daily overdue summary sweep.
type NotifyConfig struct {
	MaxAttempts         int  `mapstructure:"max_attempts"          validate:"required,gte=1,lte=10"`
	BackoffBaseSeconds  int  `mapstructure:"backoff_base_seconds"  validate:"required,gte=1"`
	DailySummaryEnabled bool `mapstructure:"daily_summary_enabled"`
	DailySummaryHour    int  `mapstructure:"daily_summary_hour"    validate:"gte=0,lte=23"`
}

// RateLimitConfig contains the settings for per-client rate limiting
// on the public authentication endpoints.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   validate:"required_if=Enabled true,gte=0"`
	Burst   int     `mapstructure:"burst" validate:"required_if=Enabled true,gte=0"`
}

// LogConfig contains optional file output settings for the logger.
// When File is empty, logs go to stdout only.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups"  validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}
