// Package config loads the process configuration from the environment
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the application configuration. It is built once at startup
// and passed to the components that need it.
type Config struct {
	// App contains process-wide settings
	App AppConfig
	// Database contains PostgreSQL connection settings
	Database DatabaseConfig
	// Redis contains the broker / cache connection settings
	Redis RedisConfig
	// JWT contains token signing settings
	JWT JWTConfig
	// Verification contains the verification code policy settings
	Verification VerificationConfig
	// Email contains mail delivery settings
	Email EmailConfig
	// Worker contains task queue worker settings
	Worker WorkerConfig
	// Kafka contains event publishing settings
	Kafka KafkaConfig
	// RateLimit contains the HTTP rate limiter settings
	RateLimit RateLimitConfig
}

// AppConfig contains process-wide settings
type AppConfig struct {
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Port     int    `envconfig:"API_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host           string `default:"localhost"`
	Port           int    `default:"5432"`
	User           string `default:"postgres"`
	Password       string `default:"postgres"`
	Database       string `default:"authd"`
	SSLMode        string `split_words:"true" default:"disable"`
	MigrationsPath string `split_words:"true" default:"migrations"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `default:"localhost"`
	Port     int    `default:"6379"`
	Password string
	DB       int `default:"0"`
}

// JWTConfig contains token signing settings
type JWTConfig struct {
	SecretKey                string `envconfig:"SECRET_KEY" required:"true"`
	Algorithm                string `envconfig:"ALGORITHM" default:"HS256"`
	AccessTokenExpireMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"15"`
	RefreshTokenExpireDays   int    `envconfig:"REFRESH_TOKEN_EXPIRE_DAYS" default:"7"`
}

// VerificationConfig contains the verification code policy settings
type VerificationConfig struct {
	CodeTTL       time.Duration `split_words:"true" default:"10m"`
	MaxRequests   int           `split_words:"true" default:"5"`
	RequestWindow time.Duration `split_words:"true" default:"1h"`
	BlockDuration time.Duration `split_words:"true" default:"30m"`
}

// EmailConfig contains mail delivery settings
type EmailConfig struct {
	// Provider is one of smtp, resend or log
	Provider     string `envconfig:"EMAIL_PROVIDER" default:"log"`
	From         string `envconfig:"EMAIL_FROM" default:"no-reply@localhost"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
}

// WorkerConfig contains task queue worker settings
type WorkerConfig struct {
	Concurrency     int    `envconfig:"WORKER_CONCURRENCY" default:"10"`
	Timezone        string `envconfig:"WORKER_TIMEZONE" default:"Asia/Tashkent"`
	CleanupSchedule string `envconfig:"CLEANUP_SCHEDULE" default:"0 * * * *"`
}

// KafkaConfig contains event publishing settings. Publishing is disabled when
// no brokers are configured.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"auth.events"`
}

// RateLimitConfig contains the HTTP rate limiter settings
type RateLimitConfig struct {
	Requests int `envconfig:"RATE_LIMIT_REQUESTS" default:"1000"` // Number of requests allowed per window
	Window   int `envconfig:"RATE_LIMIT_WINDOW" default:"60"`     // Time window in seconds
	Burst    int `envconfig:"RATE_LIMIT_BURST" default:"50"`      // Maximum burst size
}

// Load reads the configuration from environment variables and validates it.
// Variables that are not part of the configuration are ignored.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	sections := []struct {
		prefix string
		spec   interface{}
	}{
		{"", &c.App},
		{"POSTGRES", &c.Database},
		{"REDIS", &c.Redis},
		{"", &c.JWT},
		{"VERIFICATION", &c.Verification},
		{"", &c.Email},
		{"", &c.Worker},
		{"", &c.Kafka},
		{"", &c.RateLimit},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.spec); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	return nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if _, ok := jwt.GetSigningMethod(c.JWT.Algorithm).(*jwt.SigningMethodHMAC); !ok {
		return fmt.Errorf("unsupported ALGORITHM %q: expected HS256, HS384 or HS512", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.JWT.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.Verification.CodeTTL <= 0 || c.Verification.RequestWindow <= 0 || c.Verification.BlockDuration <= 0 {
		return fmt.Errorf("verification durations must be positive")
	}
	if c.Verification.MaxRequests <= 0 {
		return fmt.Errorf("VERIFICATION_MAX_REQUESTS must be positive")
	}
	if _, err := c.Worker.Location(); err != nil {
		return fmt.Errorf("invalid WORKER_TIMEZONE: %w", err)
	}
	return nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// URL returns the connection URL used by the migration driver
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// URL returns the redis connection URL with the optional password
func (r RedisConfig) URL() string {
	u := url.URL{
		Scheme: "redis",
		Host:   r.Addr(),
		Path:   "/" + strconv.Itoa(r.DB),
	}
	if r.Password != "" {
		u.User = url.UserPassword("", r.Password)
	}
	return u.String()
}

// AccessTokenTTL returns the lifetime of access tokens
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTokenTTL returns the lifetime of refresh tokens
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenExpireDays) * 24 * time.Hour
}

// Location returns the timezone used by the task scheduler
func (w WorkerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(w.Timezone)
}
