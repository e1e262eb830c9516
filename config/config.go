// Package config provides configuration management for the BlogHub backend.
// Values come from environment variables (optionally seeded from a .env file by
// main). Required variables, defaults and parse failures are all collected so a
// misconfigured deployment reports every problem at once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig represents configuration for the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxSize  int
}

// DSN returns a postgres:// URL usable by both pgxpool and golang-migrate.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret          string        // Secret key for signing JWTs
	TokenDuration      time.Duration // Lifetime of session tokens
	ResetTokenDuration time.Duration // Lifetime of password-reset links
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	FrontendURL    string   // Base URL used in emailed links
	AllowedOrigins []string // CORS origins
}

// RedisConfig configures the avatar cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a redis address was configured.
func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

// NATSConfig configures domain event publishing. An empty URL disables it.
type NATSConfig struct {
	URL string
}

// Enabled reports whether a NATS URL was configured.
func (c *NATSConfig) Enabled() bool { return c.URL != "" }

// SMTPConfig configures the outgoing mail transport. An empty Host makes the
// application log mails instead of sending them.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP host was configured.
func (c *SMTPConfig) Enabled() bool { return c.Host != "" }

// NotifyConfig sizes the follower notification worker pool.
type NotifyConfig struct {
	Workers   int
	QueueSize int
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
	Redis    *RedisConfig
	NATS     *NATSConfig
	SMTP     *SMTPConfig
	Notify   *NotifyConfig
}

// getRequiredEnv appends an error to errors if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration parses strings like "15m" or "168h".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// getOptionalEnvList splits a comma separated variable, dropping blanks.
func getOptionalEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// clampInt keeps a sizing knob within bounds, recording a note when it had to move.
func clampInt(name string, v, lo, hi int, errors *[]string) int {
	if v < lo {
		*errors = append(*errors, fmt.Sprintf("%s (%d) is less than minimum %d", name, v, lo))
		return lo
	}
	if v > hi {
		*errors = append(*errors, fmt.Sprintf("%s (%d) is greater than maximum %d", name, v, hi))
		return hi
	}
	return v
}

// LoadConfig creates and returns an AppConfig by reading and validating environment
// variables. All errors encountered are returned together.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	database := &DatabaseConfig{
		User:     getRequiredEnv("DB_USER", &errors),
		Password: getRequiredEnv("DB_PASSWORD", &errors),
		DBName:   getRequiredEnv("DB_NAME", &errors),
		Host:     getOptionalEnv("DB_HOST", "localhost"),
		Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
		SSLMode:  getOptionalEnv("DB_SSLMODE", "disable"),
	}
	database.MaxSize = clampInt("DB_POOL_SIZE", getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), 2, 100, &errors)

	auth := &AuthConfig{
		JWTSecret:          getRequiredEnv("JWT_SECRET", &errors),
		TokenDuration:      getOptionalEnvDuration("JWT_TOKEN_DURATION", 7*24*time.Hour, &errors),
		ResetTokenDuration: getOptionalEnvDuration("JWT_RESET_TOKEN_DURATION", 30*time.Minute, &errors),
	}

	server := &ServerConfig{
		Port:           getOptionalEnv("PORT", "5000"),
		FrontendURL:    strings.TrimRight(getOptionalEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		AllowedOrigins: getOptionalEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	redis := &RedisConfig{
		Addr:     getOptionalEnv("REDIS_ADDR", ""),
		Password: getOptionalEnv("REDIS_PASSWORD", ""),
		DB:       getOptionalEnvInt("REDIS_DB", 0, &errors),
		TTL:      getOptionalEnvDuration("REDIS_AVATAR_TTL", 5*time.Minute, &errors),
	}

	nats := &NATSConfig{URL: getOptionalEnv("NATS_URL", "")}

	smtp := &SMTPConfig{
		Host:     getOptionalEnv("SMTP_HOST", ""),
		Port:     getOptionalEnvInt("SMTP_PORT", 587, &errors),
		Username: getOptionalEnv("SMTP_USER", ""),
		Password: getOptionalEnv("SMTP_PASSWORD", ""),
	}
	smtp.From = getOptionalEnv("SMTP_FROM", smtp.Username)
	if smtp.Enabled() && smtp.From == "" {
		errors = append(errors, "SMTP_FROM or SMTP_USER must be set when SMTP_HOST is configured")
	}

	notify := &NotifyConfig{
		Workers:   clampInt("NOTIFY_WORKERS", getOptionalEnvInt("NOTIFY_WORKERS", 2, &errors), 1, 32, &errors),
		QueueSize: clampInt("NOTIFY_QUEUE_SIZE", getOptionalEnvInt("NOTIFY_QUEUE_SIZE", 100, &errors), 1, 10000, &errors),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Database: database,
		Auth:     auth,
		Server:   server,
		Redis:    redis,
		NATS:     nats,
		SMTP:     smtp,
		Notify:   notify,
	}, nil
}
